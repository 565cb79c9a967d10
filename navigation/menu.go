package navigation

import "github.com/MrEthical07/dmsclient/permission"

// MenuEntry is a navigable entry the current identity may see.
type MenuEntry struct {
	Name     string
	Path     string
	Title    string
	Icon     string
	Depth    int
	Children []MenuEntry
}

// Checker answers permission questions for one identity.
// permission.Checker implements it.
type Checker interface {
	IsAdmin() bool
	HasAnyPermission(codes []string) bool
}

// Menu returns the visible, named routes whose permissions the identity
// holds (any of), nested like the route table. Admin-only subtrees are
// omitted for non-admins.
func (r *Router) Menu(c Checker) []MenuEntry {
	return r.menu(r.routes, "/", Meta{}, 0, c)
}

func (r *Router) menu(routes []Route, parent string, inherited Meta, depth int, c Checker) []MenuEntry {
	var out []MenuEntry
	for i := range routes {
		rt := &routes[i]
		full := rt.Path
		if len(full) == 0 || full[0] != '/' {
			full = cleanPath(parent + "/" + full)
		}
		meta := inherited.merge(rt.Meta)

		if meta.AdminRequired() && !c.IsAdmin() {
			continue
		}
		children := r.menu(rt.Children, full, meta, depth+1, c)

		if rt.Name == "" || meta.IsHidden() || meta.Title == "" {
			out = append(out, children...)
			continue
		}
		if !c.HasAnyPermission(meta.Permissions) {
			continue
		}
		out = append(out, MenuEntry{
			Name:     rt.Name,
			Path:     full,
			Title:    meta.Title,
			Icon:     meta.Icon,
			Depth:    depth,
			Children: children,
		})
	}
	return out
}

var _ Checker = permission.Checker{}
