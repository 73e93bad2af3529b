package http

import (
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/spec-kit/freelancer-bff/internal/api/http/handlers"
	"github.com/spec-kit/freelancer-bff/internal/domain"
)

func TestResourceRoutes_Valid(t *testing.T) {
	if err := ValidateRouteTable(ResourceRoutes()); err != nil {
		t.Fatalf("route table invalid: %v", err)
	}
}

func TestResourceRoutes_StaticBeforeParam(t *testing.T) {
	for _, group := range ResourceRoutes() {
		seenParam := map[string]int{}
		for _, route := range group.Routes {
			segments := strings.Split(strings.Trim(route.Path, "/"), "/")
			for i, segment := range segments {
				key := route.Method + "|" + strings.Join(segments[:i], "/") + "|" + strconv.Itoa(len(segments))
				if strings.HasPrefix(segment, ":") {
					seenParam[key]++
					continue
				}
				if seenParam[key] > 0 {
					t.Fatalf("%s %s is shadowed by an earlier parameter route", route.Method, group.FullPath(route))
				}
			}
		}
	}
}

func TestResourceRoutes_OnlyRegisterIsPublic(t *testing.T) {
	for _, group := range ResourceRoutes() {
		for _, route := range group.Routes {
			if route.Public && group.FullPath(route) != "/freelancers/register" {
				t.Fatalf("unexpected public route %s %s", route.Method, group.FullPath(route))
			}
		}
	}
}

func TestResourceRoutes_DeletesNeedAdminExceptOwnedResources(t *testing.T) {
	for _, group := range ResourceRoutes() {
		for _, route := range group.Routes {
			if route.Method != http.MethodDelete || route.Path != "/:id" {
				continue
			}
			roles := group.RequiredRoles(route)
			switch group.Prefix {
			case "/clients", "/social-networks":
				if len(roles) != 3 {
					t.Fatalf("%s delete should admit every freelancer role, got %v", group.Prefix, roles)
				}
			default:
				if len(roles) != 1 || roles[0] != domain.RoleAdmin {
					t.Fatalf("%s delete should be admin only, got %v", group.Prefix, roles)
				}
			}
		}
	}
}

func TestRouteGroup_Resolution(t *testing.T) {
	group := RouteGroup{
		Prefix: "/things",
		Roles:  []domain.Role{domain.RoleAdmin},
	}

	inherit := Route{Method: http.MethodGet, Path: "/:id"}
	if roles := group.RequiredRoles(inherit); len(roles) != 1 || roles[0] != domain.RoleAdmin {
		t.Fatalf("expected group roles, got %v", roles)
	}

	override := Route{Method: http.MethodGet, Path: "/:id", Roles: []domain.Role{domain.RoleFreelancer}}
	if roles := group.RequiredRoles(override); len(roles) != 1 || roles[0] != domain.RoleFreelancer {
		t.Fatalf("expected route roles, got %v", roles)
	}

	public := Route{Method: http.MethodPost, Path: "", Public: true}
	if roles := group.RequiredRoles(public); roles != nil {
		t.Fatalf("public routes need no roles, got %v", roles)
	}
	if full := group.FullPath(public); full != "/things" {
		t.Fatalf("unexpected full path %q", full)
	}

	target := group.UpstreamTarget(inherit)
	if target.Method != http.MethodGet || target.Path != "/things/:id" {
		t.Fatalf("unexpected default target %+v", target)
	}
}

func TestValidateRouteTable_Rejects(t *testing.T) {
	cases := map[string][]RouteGroup{
		"duplicate":  {{Prefix: "/a", Roles: adminOnly, Routes: []Route{get("/x"), get("/x")}}},
		"no roles":   {{Prefix: "/a", Routes: []Route{get("/x")}}},
		"bad role":   {{Prefix: "/a", Roles: []domain.Role{"ROOT"}, Routes: []Route{get("/x")}}},
		"bad prefix": {{Prefix: "a", Roles: adminOnly, Routes: []Route{get("/x")}}},
		"public subject": {{Prefix: "/a", Routes: []Route{
			get("/me").public().to(http.MethodGet, "/a/"+handlers.SubjectParam),
		}}},
		"missing inject param": {{Prefix: "/a", Roles: adminOnly, Routes: []Route{
			post("/x").inject(handlers.Injection{Field: "aId", Param: "aId"}),
		}}},
	}
	for name, groups := range cases {
		if err := ValidateRouteTable(groups); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}
