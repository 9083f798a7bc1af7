package domain

import (
	"sort"
	"strings"
)

// Page is a storefront route subject to access checks.
type Page string

const (
	PageHome                Page = "/"
	PageProducts            Page = "/products"
	PageSalons              Page = "/salons"
	PageTutorials           Page = "/tutorials"
	PageBlog                Page = "/blog"
	PageCart                Page = "/cart"
	PageCheckout            Page = "/checkout"
	PageOrders              Page = "/orders"
	PageDashboard           Page = "/dashboard"
	PageSellerDashboard     Page = "/dashboard/seller"
	PageB2BDashboard        Page = "/dashboard/b2b"
	PageAdminDashboard      Page = "/dashboard/admin"
	PageInfluencerDashboard Page = "/dashboard/influencer"
)

var publicPages = []Page{PageHome, PageProducts, PageSalons, PageTutorials, PageBlog, PageCart}

// pageRoles lists the roles allowed on each protected page.
var pageRoles = map[Page][]Role{
	PageCheckout:            Roles,
	PageOrders:              Roles,
	PageDashboard:           Roles,
	PageSellerDashboard:     {RoleSeller},
	PageB2BDashboard:        {RoleB2B},
	PageAdminDashboard:      {RoleAdmin},
	PageInfluencerDashboard: {RoleInfluencer},
}

// IsPublic reports whether p needs no session.
func (p Page) IsPublic() bool {
	for _, pub := range publicPages {
		if p == pub {
			return true
		}
	}
	return false
}

// Known reports whether p is in the access table.
func (p Page) Known() bool {
	if p.IsPublic() {
		return true
	}
	_, ok := pageRoles[p]
	return ok
}

// AllowedPages returns every page a user with role may open, sorted.
func AllowedPages(role Role) []Page {
	out := append([]Page(nil), publicPages...)
	for page, roles := range pageRoles {
		for _, r := range roles {
			if r == role {
				out = append(out, page)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AccessiblePages returns every known page Authorize grants to s, sorted.
func AccessiblePages(s Session) []Page {
	out := make([]Page, 0, len(publicPages)+len(pageRoles))
	out = append(out, publicPages...)
	for page := range pageRoles {
		if Authorize(s, page).Allowed() {
			out = append(out, page)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AccessStatus is the outcome of a page access check.
type AccessStatus string

const (
	AccessGranted         AccessStatus = "granted"
	AccessUnauthenticated AccessStatus = "unauthenticated"
	AccessForbidden       AccessStatus = "forbidden"
)

// Decision is the result of Authorize with the message shown to the visitor.
type Decision struct {
	Status  AccessStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Allowed reports whether access was granted.
func (d Decision) Allowed() bool {
	return d.Status == AccessGranted
}

// Authorize checks whether the session may open page. Unknown pages are treated as
// protected pages open to every role.
func Authorize(s Session, page Page) Decision {
	if page.IsPublic() {
		return Decision{Status: AccessGranted}
	}
	if !s.Authenticated {
		return Decision{Status: AccessUnauthenticated, Message: "Please sign in to access this page"}
	}
	roles, ok := pageRoles[page]
	if !ok {
		roles = Roles
	}
	// A session without a user record cannot be matched against a role table that
	// excludes someone.
	if len(roles) == len(Roles) {
		return Decision{Status: AccessGranted}
	}
	role := s.Role()
	for _, r := range roles {
		if r == role {
			return Decision{Status: AccessGranted}
		}
	}
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return Decision{
		Status:  AccessForbidden,
		Message: "Access denied. This page is only available for " + strings.Join(names, ", ") + " accounts.",
	}
}

// DashboardPath is the landing dashboard for role.
func DashboardPath(role Role) Page {
	switch role {
	case RoleSeller:
		return PageSellerDashboard
	case RoleB2B:
		return PageB2BDashboard
	case RoleAdmin:
		return PageAdminDashboard
	case RoleInfluencer:
		return PageInfluencerDashboard
	default:
		return PageDashboard
	}
}
