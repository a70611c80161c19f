// components/content/content.go
//
// Single-table feature modules: users, communities, projects, events, blog,
// store, gallery, partners, and team members.
//
// Each module is a resource.Handler over one table plus a write policy:
//
//   • member-owned  – any signed-in user creates; the creator or an admin
//                     edits and deletes (communities, projects, events,
//                     blog, gallery).
//   • admin-managed – only admins write (store, partners, team members).
//   • read-only     – public profiles (users).

package content

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"github.com/izonedevs/izonehub-api/internal/acl"
	"github.com/izonedevs/izonehub-api/internal/component"
	"github.com/izonedevs/izonehub-api/internal/resource"
)

// Compile-time assertion.
var _ component.Component = (*Module)(nil)

// Module is one CRUD router.
type Module struct {
	name, prefix, tag string
	table             resource.Table
	adminWrites       bool
	readOnly          bool
	owner             string
	hooks             func(db *sqlx.DB) []resource.Hook
}

func (m *Module) Name() string   { return m.name }
func (m *Module) Prefix() string { return m.prefix }
func (m *Module) Tag() string    { return m.tag }

// Routes needs a database; without one the module reports Unavailable.
func (m *Module) Routes(d component.Deps) (chi.Router, error) {
	if err := d.RequireDB(); err != nil {
		return nil, err
	}
	return resource.New(d.DB, m.table, m.options(d.DB)).Routes(), nil
}

func (m *Module) options(db *sqlx.DB) resource.Options {
	opts := resource.Options{ReadOnly: m.readOnly, Owner: m.owner}
	if m.adminWrites {
		opts.Guard = acl.RequireRole(db, "admin")
	}
	if m.hooks != nil {
		opts.Before = chain(m.hooks(db)...)
	}
	return opts
}

// Users lists public member profiles.
func Users() *Module {
	return &Module{name: "users", prefix: "/api/users", tag: "Users", table: PublicUserTable, readOnly: true}
}

func Communities() *Module {
	return &Module{
		name: "communities", prefix: "/api/communities", tag: "Communities",
		table: CommunityTable, owner: "created_by",
		hooks: func(*sqlx.DB) []resource.Hook { return []resource.Hook{owner("created_by")} },
	}
}

func Projects() *Module {
	return &Module{
		name: "projects", prefix: "/api/projects", tag: "Projects",
		table: ProjectTable, owner: "owner_id",
		hooks: func(*sqlx.DB) []resource.Hook { return []resource.Hook{owner("owner_id")} },
	}
}

func Events() *Module {
	return &Module{
		name: "events", prefix: "/api/events", tag: "Events",
		table: EventTable, owner: "organizer_id",
		hooks: func(db *sqlx.DB) []resource.Hook {
			return []resource.Hook{slug(db, "events"), owner("organizer_id")}
		},
	}
}

func Blog() *Module {
	return &Module{
		name: "blog", prefix: "/api/blog", tag: "Blog",
		table: BlogPostTable, owner: "author_id",
		hooks: func(db *sqlx.DB) []resource.Hook {
			return []resource.Hook{slug(db, "blog_posts"), owner("author_id"), publishedAt(time.Now)}
		},
	}
}

func Store() *Module {
	return &Module{name: "store", prefix: "/api/store", tag: "Store", table: ProductTable, adminWrites: true}
}

func Gallery() *Module {
	return &Module{
		name: "gallery", prefix: "/api/gallery", tag: "Gallery",
		table: GalleryTable, owner: "uploaded_by",
		hooks: func(*sqlx.DB) []resource.Hook { return []resource.Hook{owner("uploaded_by")} },
	}
}

func Partners() *Module {
	return &Module{name: "partners", prefix: "/api/partners", tag: "Partners", table: PartnerTable, adminWrites: true}
}

func TeamMembers() *Module {
	return &Module{name: "team-members", prefix: "/api/team-members", tag: "Team Members", table: TeamMemberTable, adminWrites: true}
}
