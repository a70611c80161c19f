// Package components lists the feature modules in mount order.
package components

import (
	"github.com/izonedevs/izonehub-api/components/admin"
	"github.com/izonedevs/izonehub-api/components/auth"
	"github.com/izonedevs/izonehub-api/components/contact"
	"github.com/izonedevs/izonehub-api/components/content"
	"github.com/izonedevs/izonehub-api/components/registrations"
	"github.com/izonedevs/izonehub-api/components/upload"
	"github.com/izonedevs/izonehub-api/internal/component"
)

// All returns a fresh set of modules.  The order is the order of the root
// endpoint's route listing.
func All() []component.Component {
	return []component.Component{
		auth.New(),
		content.Users(),
		content.Communities(),
		content.Projects(),
		content.Events(),
		content.Blog(),
		content.Store(),
		content.Gallery(),
		contact.New(),
		upload.New(),
		registrations.New(),
		content.Partners(),
		content.TeamMembers(),
		admin.Dashboard(),
		admin.Users(),
		admin.Content(),
	}
}
