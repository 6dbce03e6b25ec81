package auth

import (
	"fmt"
	"io"
)

// WriteCookieGuide explains where to find the two cookies igaudit needs
func WriteCookieGuide(w io.Writer) {
	fmt.Fprintln(w, "igaudit reads public profile data with your Instagram session cookies.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  1. Log in at https://www.instagram.com in a desktop browser")
	fmt.Fprintln(w, "  2. Open developer tools (F12) and go to Application/Storage > Cookies")
	fmt.Fprintln(w, "  3. Select https://www.instagram.com and copy the values of:")
	fmt.Fprintln(w, "       sessionid   long string containing %3A")
	fmt.Fprintln(w, "       csrftoken   32 characters")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "These cookies grant full access to the account. Use a secondary account")
	fmt.Fprintln(w, "and never share them. igaudit keeps them in the system keychain, or in an")
	fmt.Fprintln(w, "encrypted file when no keychain is available.")
}
