package handlers

import "net/http"

// Home: GET / shows the landing page, or the catalog once logged in.
func Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		notFound(w, r)
		return
	}
	if currentUser(r) != 0 {
		http.Redirect(w, r, "/materiais", http.StatusSeeOther)
		return
	}
	render(w, r, http.StatusOK, "index.html", nil)
}
