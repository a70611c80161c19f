// components/content/tables.go
//
// Column declarations for every single-table feature.  Rules follow
// go-playground/validator syntax; optional fields start with "omitempty".

package content

import "github.com/izonedevs/izonehub-api/internal/resource"

const rfc3339 = "datetime=2006-01-02T15:04:05Z07:00"

// UserTable is the admin view of accounts.  Only profile fields are writable
// through it; credentials and roles have dedicated endpoints.
var UserTable = resource.Table{
	Name: "users",
	Noun: "User",
	Fields: []resource.Field{
		{Name: "full_name", Rules: "omitempty,max=100"},
		{Name: "bio", Rules: "omitempty,max=1000"},
		{Name: "avatar_url", Rules: "omitempty,max=500"},
	},
	Hidden:  []string{"hashed_password"},
	Filters: []string{"role", "is_active"},
}

// PublicUserTable hides contact details from anonymous listings.
var PublicUserTable = func() resource.Table {
	t := UserTable
	t.Hidden = []string{"hashed_password", "email"}
	t.Filters = nil
	return t
}()

var CommunityTable = resource.Table{
	Name: "communities",
	Noun: "Community",
	Fields: []resource.Field{
		{Name: "name", Rules: "required,max=100"},
		{Name: "description", Rules: "omitempty,max=2000"},
		{Name: "image_url", Rules: "omitempty,max=500"},
	},
	Auto: []string{"created_by"},
}

var ProjectTable = resource.Table{
	Name: "projects",
	Noun: "Project",
	Fields: []resource.Field{
		{Name: "title", Rules: "required,max=200"},
		{Name: "description", Rules: "omitempty,max=5000"},
		{Name: "status", Rules: "omitempty,oneof=active completed archived"},
		{Name: "image_url", Rules: "omitempty,max=500"},
		{Name: "repo_url", Rules: "omitempty,url"},
		{Name: "community_id", Kind: resource.Int, Rules: "omitempty,gt=0"},
	},
	Auto:    []string{"owner_id"},
	Filters: []string{"status", "community_id", "owner_id"},
}

var EventTable = resource.Table{
	Name: "events",
	Noun: "Event",
	Fields: []resource.Field{
		{Name: "title", Rules: "required,max=200"},
		{Name: "description", Rules: "omitempty,max=5000"},
		{Name: "location", Rules: "omitempty,max=200"},
		{Name: "start_date", Rules: "omitempty," + rfc3339},
		{Name: "end_date", Rules: "omitempty," + rfc3339},
		{Name: "capacity", Kind: resource.Int, Rules: "omitempty,gte=0"},
		{Name: "image_url", Rules: "omitempty,max=500"},
		{Name: "status", Rules: "omitempty,oneof=upcoming ongoing completed cancelled"},
	},
	Auto:    []string{"slug", "organizer_id"},
	Filters: []string{"status"},
	Order:   "start_date DESC, id DESC",
}

var BlogPostTable = resource.Table{
	Name: "blog_posts",
	Noun: "Blog post",
	Fields: []resource.Field{
		{Name: "title", Rules: "required,max=200"},
		{Name: "excerpt", Rules: "omitempty,max=500"},
		{Name: "content", Rules: "required"},
		{Name: "image_url", Rules: "omitempty,max=500"},
		{Name: "status", Rules: "omitempty,oneof=draft published archived"},
	},
	Auto:    []string{"slug", "author_id", "published_at"},
	Filters: []string{"status", "author_id"},
}

var ProductTable = resource.Table{
	Name: "products",
	Noun: "Product",
	Fields: []resource.Field{
		{Name: "name", Rules: "required,max=200"},
		{Name: "description", Rules: "omitempty,max=5000"},
		{Name: "price", Kind: resource.Float, Rules: "required,gte=0"},
		{Name: "stock", Kind: resource.Int, Rules: "omitempty,gte=0"},
		{Name: "category", Rules: "omitempty,max=50"},
		{Name: "image_url", Rules: "omitempty,max=500"},
	},
	Filters: []string{"category"},
}

var GalleryTable = resource.Table{
	Name: "gallery_items",
	Noun: "Gallery item",
	Fields: []resource.Field{
		{Name: "title", Rules: "required,max=200"},
		{Name: "description", Rules: "omitempty,max=2000"},
		{Name: "image_url", Rules: "required,max=500"},
		{Name: "category", Rules: "omitempty,max=50"},
	},
	Auto:    []string{"uploaded_by"},
	Filters: []string{"category"},
}

var PartnerTable = resource.Table{
	Name: "partners",
	Noun: "Partner",
	Fields: []resource.Field{
		{Name: "name", Rules: "required,max=200"},
		{Name: "logo_url", Rules: "omitempty,max=500"},
		{Name: "website", Rules: "omitempty,url"},
		{Name: "description", Rules: "omitempty,max=2000"},
	},
	Order: "name ASC",
}

var TeamMemberTable = resource.Table{
	Name: "team_members",
	Noun: "Team member",
	Fields: []resource.Field{
		{Name: "name", Rules: "required,max=100"},
		{Name: "position", Rules: "omitempty,max=100"},
		{Name: "bio", Rules: "omitempty,max=2000"},
		{Name: "image_url", Rules: "omitempty,max=500"},
		{Name: "display_order", Kind: resource.Int, Rules: "omitempty,gte=0"},
	},
	Order: "display_order ASC, id ASC",
}

var ContactTable = resource.Table{
	Name: "contact_messages",
	Noun: "Message",
	Fields: []resource.Field{
		{Name: "name", Rules: "required,max=100"},
		{Name: "email", Rules: "required,email"},
		{Name: "subject", Rules: "omitempty,max=200"},
		{Name: "message", Rules: "required,max=5000"},
	},
	Auto:    []string{"status"},
	Filters: []string{"status"},
}

var RegistrationTable = resource.Table{
	Name: "event_registrations",
	Noun: "Registration",
	Fields: []resource.Field{
		{Name: "event_id", Kind: resource.Int, Rules: "required,gt=0"},
	},
	Auto:    []string{"user_id", "status"},
	Filters: []string{"event_id", "user_id", "status"},
}

var UploadTable = resource.Table{
	Name:    "uploads",
	Noun:    "Upload",
	Auto:    []string{"filename", "original_name", "content_type", "size", "uploaded_by"},
	Filters: []string{"uploaded_by"},
}
