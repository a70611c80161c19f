// Package admin holds the staff panels.  Each panel is a separate,
// optional module: a failure to mount one leaves the public API and the
// other panels untouched.
//
// Routes
// ------
//   /api/admin/dashboard   GET /                 table counts and recent sign-ups
//   /api/admin/users       GET /, GET /{id}      every account, hidden hashes
//                          PATCH /{id}           {role, is_active}
//                          DELETE /{id}
//   /api/admin/content     GET /{kind}, DELETE /{kind}/{id}
//                          kind: blog, events, gallery, projects
//
// Every route requires the admin role, checked against the database.
package admin

import (
	"github.com/go-chi/chi/v5"

	"github.com/izonedevs/izonehub-api/internal/acl"
	"github.com/izonedevs/izonehub-api/internal/component"
)

// panel is the shared shape of the three admin modules.
type panel struct {
	name, prefix string
	routes       func(d component.Deps, r chi.Router)
}

var _ component.Optional = (*panel)(nil)

func (p *panel) Name() string   { return p.name }
func (p *panel) Prefix() string { return p.prefix }
func (p *panel) Tag() string    { return "Admin" }
func (p *panel) Optional() bool { return true }

func (p *panel) Routes(d component.Deps) (chi.Router, error) {
	if err := d.RequireDB(); err != nil {
		return nil, err
	}
	r := chi.NewRouter()
	r.Use(acl.RequireRole(d.DB, "admin"))
	p.routes(d, r)
	return r, nil
}

func Dashboard() component.Component {
	return &panel{name: "admin-dashboard", prefix: "/api/admin/dashboard", routes: dashboardRoutes}
}

func Users() component.Component {
	return &panel{name: "admin-users", prefix: "/api/admin/users", routes: userRoutes}
}

func Content() component.Component {
	return &panel{name: "admin-content", prefix: "/api/admin/content", routes: contentRoutes}
}
