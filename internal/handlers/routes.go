package handlers

import "net/http"

// Routes bundles the handlers mounted on the API mux
type Routes struct {
	Middleware  *Middleware
	Auth        *AuthHandler
	Practice    *PracticeHandler
	Startup     *StartupStatus
	StaticFiles string
}

// Register mounts every API route on mux
func (rt Routes) Register(mux *http.ServeMux) {
	m := rt.Middleware

	if rt.StaticFiles != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(rt.StaticFiles))))
	}
	mux.HandleFunc("GET /health", rt.Startup.Health)

	// Public routes
	mux.HandleFunc("POST /api/signup", m.RateLimit(rt.Auth.Signup))
	mux.HandleFunc("POST /api/login", m.RateLimit(rt.Auth.Login))
	mux.HandleFunc("GET /auth/{provider}/start", rt.Auth.StartOAuth)
	mux.HandleFunc("GET /auth/{provider}/callback", rt.Auth.OAuthCallback)

	// Protected routes
	mux.HandleFunc("POST /api/logout", m.RequireAuth(m.CSRFProtect(rt.Auth.Logout)))
	mux.HandleFunc("GET /api/me", m.RequireAuth(rt.Auth.Me))
	mux.HandleFunc("GET /api/exams", m.RequireAuth(rt.Practice.Exams))
	mux.HandleFunc("GET /api/subjects", m.RequireAuth(rt.Practice.Subjects))
	mux.HandleFunc("POST /api/practice/start", m.RequireAuth(m.CSRFProtect(rt.Practice.Start)))
	mux.HandleFunc("POST /api/practice/answer", m.RequireAuth(m.CSRFProtect(rt.Practice.Answer)))
	mux.HandleFunc("GET /api/practice/missed", m.RequireAuth(rt.Practice.Missed))
}
