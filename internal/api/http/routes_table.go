package http

import (
	"net/http"

	"github.com/spec-kit/freelancer-bff/internal/api/http/handlers"
	"github.com/spec-kit/freelancer-bff/internal/domain"
)

var (
	anyFreelancer = []domain.Role{domain.RoleFreelancer, domain.RoleFreelancerPremium, domain.RoleAdmin}
	adminOnly     = []domain.Role{domain.RoleAdmin}
	legalReview   = []domain.Role{domain.RoleAdmin, domain.RoleLegalAnalyst}
	legalReaders  = []domain.Role{domain.RoleFreelancer, domain.RoleFreelancerPremium, domain.RoleAdmin, domain.RoleLegalAnalyst}
)

func get(path string) Route   { return Route{Method: http.MethodGet, Path: path} }
func post(path string) Route  { return Route{Method: http.MethodPost, Path: path} }
func patch(path string) Route { return Route{Method: http.MethodPatch, Path: path} }
func del(path string) Route   { return Route{Method: http.MethodDelete, Path: path} }

// update maps an inbound PATCH of a whole resource onto the upstream PUT.
func update(path string) Route {
	r := patch(path)
	r.Upstream.Method = http.MethodPut
	return r
}

func (r Route) roles(roles ...domain.Role) Route {
	r.Roles = roles
	return r
}

func (r Route) public() Route {
	r.Public = true
	return r
}

func (r Route) status(code int) Route {
	r.Upstream.Status = code
	return r
}

func (r Route) to(method, path string) Route {
	r.Upstream.Method = method
	r.Upstream.Path = path
	return r
}

func (r Route) inject(in handlers.Injection) Route {
	r.Upstream.Inject = append(r.Upstream.Inject, in)
	return r
}

// ResourceRoutes is the forwarding surface. Within a group, static segments
// are listed before parameters matching the same position.
func ResourceRoutes() []RouteGroup {
	return []RouteGroup{
		{
			Prefix: "/freelancers",
			Roles:  adminOnly,
			Routes: []Route{
				post("/register").public().
					inject(handlers.Injection{Field: "roles", Value: []domain.Role{domain.RoleFreelancer}}),
				post(""),
				get(""),
				get("/profile").roles(anyFreelancer...).to(http.MethodGet, "/freelancers/:subject"),
				patch("/profile").roles(anyFreelancer...).to(http.MethodPut, "/freelancers/:subject"),
				patch("/change-password").roles(anyFreelancer...).status(http.StatusOK).
					to(http.MethodPut, "/freelancers/:subject/change-password"),
				get("/by-username/:username"),
				get("/by-email/:email"),
				get("/:id"),
				update("/:id"),
				patch("/:id/status"),
				patch("/:id/roles"),
				del("/:id"),
			},
		},
		{
			Prefix: "/clients",
			Roles:  anyFreelancer,
			Routes: []Route{
				post(""),
				get(""),
				get("/by-email/:email"),
				get("/by-document/:cpfCnpj"),
				get("/:id"),
				update("/:id"),
				del("/:id"),
			},
		},
		{
			Prefix: "/roles",
			Roles:  adminOnly,
			Routes: []Route{
				post(""),
				get(""),
				get("/active").roles(anyFreelancer...),
				post("/assign").status(http.StatusOK),
				get("/freelancer/:freelancerId"),
				del("/freelancer/:freelancerId/role/:roleId"),
				get("/by-name/:name"),
				get("/:id"),
				update("/:id"),
				patch("/:id/status"),
				del("/:id"),
			},
		},
		{
			Prefix: "/categories",
			Roles:  anyFreelancer,
			Routes: []Route{
				post(""),
				get(""),
				get("/active"),
				get("/by-tipo/:tipo"),
				get("/:id"),
				update("/:id"),
				patch("/:id/status"),
				del("/:id").roles(adminOnly...),
			},
		},
		{
			Prefix: "/kanbans",
			Roles:  anyFreelancer,
			Routes: []Route{
				post(""),
				get(""),
				get("/active"),
				get("/proposal/:propostaId"),
				get("/:id"),
				get("/:id/metrics"),
				get("/:id/progress"),
				update("/:id"),
				patch("/:id/deactivate"),
				del("/:id").roles(adminOnly...),
				post("/:id/tasks").to(http.MethodPost, "/kanbans/tasks").
					inject(handlers.Injection{Field: "kanbanId", Param: "id"}),
				get("/:id/tasks"),
				get("/:id/tasks/status/:status"),
				get("/:id/tasks/priority/:priority"),
				get("/:id/tasks/overdue"),
				get("/:id/tasks/:taskId"),
				update("/:id/tasks/:taskId"),
				patch("/:id/tasks/:taskId/move"),
				patch("/:id/tasks/:taskId/block"),
				patch("/:id/tasks/:taskId/unblock"),
				patch("/:id/tasks/:taskId/complete"),
				patch("/:id/tasks/:taskId/add-time"),
				del("/:id/tasks/:taskId"),
			},
		},
		{
			Prefix: "/proposals",
			Roles:  anyFreelancer,
			Routes: []Route{
				post(""),
				get(""),
				get("/accepted"),
				get("/drafts"),
				get("/metrics"),
				get("/by-status/:status"),
				get("/client/:clienteId"),
				get("/:id"),
				update("/:id"),
				patch("/:id/accept"),
				patch("/:id/reject"),
				patch("/:id/status"),
				post("/:id/generate-contract"),
				get("/:id/contract/download"),
				post("/:id/upload-edited-contract"),
				post("/:id/send-email"),
				post("/:id/attach-signed-contract"),
				del("/:id").roles(adminOnly...),
			},
		},
		{
			Prefix: "/services",
			Roles:  anyFreelancer,
			Routes: []Route{
				post(""),
				get(""),
				get("/active"),
				get("/price-range"),
				get("/by-status/:status"),
				get("/category/:categoriaId"),
				get("/:id"),
				update("/:id"),
				patch("/:id/status"),
				del("/:id").roles(adminOnly...),
			},
		},
		{
			Prefix: "/social-networks",
			Roles:  anyFreelancer,
			Routes: []Route{
				post(""),
				get(""),
				get("/client/:clienteId"),
				get("/type/:tipoId"),
				get("/:id"),
				update("/:id"),
				del("/:id"),
			},
		},
		{
			Prefix: "/social-networks-types",
			Roles:  anyFreelancer,
			Routes: []Route{
				post(""),
				get(""),
				get("/active"),
				get("/by-tipo/:tipo"),
				get("/:id"),
				update("/:id"),
				patch("/:id/status"),
				del("/:id").roles(adminOnly...),
			},
		},
		{
			Prefix: "/templates",
			Roles:  anyFreelancer,
			Routes: []Route{
				post(""),
				get("").roles(legalReaders...),
				get("/approved"),
				get("/by-status/:status").roles(legalReview...),
				get("/:id").roles(legalReaders...),
				get("/:id/download"),
				update("/:id"),
				patch("/:id/approve").roles(legalReview...),
				del("/:id").roles(adminOnly...),
			},
		},
	}
}
