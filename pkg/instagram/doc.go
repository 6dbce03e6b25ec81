// Package instagram provides a client for Instagram's web profile API.
//
// The client sends browser-like headers plus the web app id, optionally with
// session cookies, and maps HTTP failures onto the typed errors of
// igaudit/pkg/errors:
//
//	client := instagram.NewClient(30*time.Second, log)
//	client.SetSession(sessionID, csrfToken)
//
//	user, err := client.FetchWebProfile(ctx, "natgeo")
//	switch {
//	case errors.IsNotFound(err):
//	    // no such account
//	case err != nil:
//	    // auth, rate_limit, network, server_error or parsing
//	}
//	fmt.Println(user.EdgeFollowedBy.Count, user.Biography)
//
// SanitizeUsername and IsValidUsername normalise and check user input before
// any request is made.
package instagram
