package notification

import "github.com/sparkinventory/spark-notify/internal/model"

// TypeConfig is the static display and capability metadata for one
// action kind. It is configuration, not derived from the network.
type TypeConfig struct {
	// Title is the headline shown for items of this kind.
	Title string

	// ActionLabel is the text on the execute affordance.
	ActionLabel string

	// CanExecute reports whether the backend supports executing this
	// kind. When false the executor refuses locally, before any
	// network call.
	CanExecute bool
}

// typeConfigs maps the known action kinds to their configuration.
// update_sales_order execution is not implemented on the backend yet,
// and not_actionable items are review-only by definition.
var typeConfigs = map[model.ActionKind]TypeConfig{
	model.KindCreateSalesOrder: {
		Title:       "Create Sales Order",
		ActionLabel: "Create Order",
		CanExecute:  true,
	},
	model.KindUpdateSalesOrder: {
		Title:       "Update Sales Order",
		ActionLabel: "Review Changes",
		CanExecute:  false,
	},
	model.KindNotActionable: {
		Title:       "Needs Review",
		ActionLabel: "Mark as Reviewed",
		CanExecute:  false,
	},
}

// LookupType returns the configuration for an action kind. It is total:
// kinds this client does not recognize resolve to a view-only fallback
// rather than an error, so the backend can ship new kinds before the
// client updates.
func LookupType(kind model.ActionKind) TypeConfig {
	if cfg, ok := typeConfigs[kind]; ok {
		return cfg
	}
	return TypeConfig{
		Title:       string(kind),
		ActionLabel: "View",
		CanExecute:  false,
	}
}
