package chart

const DefaultPanelWidth = 260

type Placement struct {
	Index  int `json:"index"`
	Row    int `json:"row"`
	Column int `json:"column"`
}

type Layout struct {
	Columns    int         `json:"columns"`
	Rows       int         `json:"rows"`
	Placements []Placement `json:"placements"`
}

// PlanDashboard places panels on a grid that fits availableWidth. There is
// always at least one column, even when a single panel does not fit.
func PlanDashboard(panels, availableWidth, panelWidth int) Layout {
	columns := 1
	if panelWidth > 0 && availableWidth > 0 {
		columns = max(1, availableWidth/panelWidth)
	}

	layout := Layout{
		Columns:    columns,
		Placements: make([]Placement, 0, max(panels, 0)),
	}
	for i := 0; i < panels; i++ {
		layout.Placements = append(layout.Placements, Placement{
			Index:  i,
			Row:    i / columns,
			Column: i % columns,
		})
	}
	if panels > 0 {
		layout.Rows = (panels + columns - 1) / columns
	}
	return layout
}
