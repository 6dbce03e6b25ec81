// Package detector answers "is this account fake?" for a username.
//
//	d := detector.New(provider.NewMockProvider(), nil, log)
//	report, err := d.Check(ctx, "@travel_blogger")
//	if err != nil {
//	    // errors.IsValidation / errors.IsNotFound / upstream failure
//	}
//	fmt.Println(report.Label, report.Explanation)
package detector
