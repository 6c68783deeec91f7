package services

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/drayishere/lead-capture/pkg/config"
	"github.com/drayishere/lead-capture/pkg/models"
)

// Route names the two form sources the service knows about.
type Route string

const (
	// RouteBlueprint is the default destination: the Build Better Blueprint
	// email course list.
	RouteBlueprint Route = "blueprint"
	// RouteFreelance is the destination for freelance ad-form leads.
	RouteFreelance Route = "freelance"
)

// ListSelection is the resolved destination for one submission.
type ListSelection struct {
	Route  Route
	ListID string
}

// ResolveList computes the destination list for a submission. An explicit
// list flag wins; otherwise a primary-need field or a /book referer selects
// the freelance list, and everything else falls to the default. The resolved
// ID must be configured or the selection fails closed — it never silently
// falls through to an unrelated list.
func ResolveList(cfg *config.Config, data models.SubscribeRequest, referer string) (ListSelection, error) {
	route := RouteBlueprint

	switch {
	case strings.EqualFold(strings.TrimSpace(data.List), string(RouteFreelance)):
		route = RouteFreelance
	case strings.EqualFold(strings.TrimSpace(data.List), string(RouteBlueprint)):
		route = RouteBlueprint
	case strings.TrimSpace(data.PrimaryNeed) != "":
		route = RouteFreelance
	case strings.HasSuffix(refererPath(referer), "/book"):
		route = RouteFreelance
	}

	selection := ListSelection{Route: route}
	if route == RouteFreelance {
		selection.ListID = cfg.FreelanceListID
	} else {
		selection.ListID = cfg.DefaultListID
	}

	if selection.ListID == "" {
		return ListSelection{}, &Error{
			Kind:    KindConfig,
			Status:  http.StatusInternalServerError,
			Message: "List not configured",
		}
	}

	return selection, nil
}

// refererPath extracts the path portion of a Referer header value, with the
// trailing slash dropped. Bare paths and malformed URLs pass through as-is.
func refererPath(referer string) string {
	referer = strings.TrimSpace(referer)
	if referer == "" {
		return ""
	}
	p := referer
	if u, err := url.Parse(referer); err == nil && u.Path != "" {
		p = u.Path
	}
	return strings.TrimSuffix(p, "/")
}

// BuildProperties returns the provider-side custom property set for a route.
// The key sets are fixed per source so existing Klaviyo segmentation rules
// keep matching.
func BuildProperties(selection ListSelection, data models.SubscribeRequest) map[string]interface{} {
	if selection.Route == RouteFreelance {
		return map[string]interface{}{
			"primaryNeed": strings.TrimSpace(data.PrimaryNeed),
			"source":      "Freelance Ad Form",
		}
	}

	props := map[string]interface{}{
		"source": "Build Better Blueprint",
	}
	if bt := strings.TrimSpace(data.BusinessType); bt != "" {
		props["businessType"] = bt
	}
	return props
}
