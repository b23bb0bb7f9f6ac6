package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// Debug reports build information and the request as the server saw
// it, for quick diagnostics with curl or a browser.
func Debug(repoURL, sha1ver, buildtime string) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		var b strings.Builder

		fmt.Fprintf(&b, "request: %s %s\n", r.Method, r.RequestURI)
		fmt.Fprintf(&b, "api version: %s\n", mux.Vars(r)["apiVersion"])

		b.WriteString("\nheaders:\n")
		for name, values := range r.Header {
			for _, v := range values {
				fmt.Fprintf(&b, "  %s: %s\n", name, v)
			}
		}

		fmt.Fprintf(&b, "\nsource: %s/commit/%s\n", repoURL, sha1ver)
		fmt.Fprintf(&b, "built: %s\n", buildtime)

		servePlainText(rw, b.String())
	})
}
