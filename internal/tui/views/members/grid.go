// Package members provides the family and deceased member grids and the
// dialogs used to edit them.
package members

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/censoparroquial/censo/internal/models"
	"github.com/censoparroquial/censo/internal/tui/components"
	"github.com/censoparroquial/censo/internal/util"
)

// Grid lists members in a table and tracks which one is selected.
type Grid struct {
	table *components.Table
	ids   []string
}

func newGrid(columns []components.Column, empty string) *Grid {
	table := components.NewTable(columns)
	table.SetEmptyText(empty)
	table.Resize(80)
	table.Focus(true)
	return &Grid{table: table}
}

// NewFamilyGrid creates the living members grid.
func NewFamilyGrid() *Grid {
	// Higher priority = kept longer when the terminal narrows.
	return newGrid([]components.Column{
		{Title: "Nombres", Weight: 2, MinWidth: 12, Priority: 10},
		{Title: "Edad", Fixed: 4, Align: lipgloss.Right, Priority: 9},
		{Title: "Parentesco", Weight: 1, MinWidth: 10, Priority: 8},
		{Title: "Sexo", Fixed: 10, Priority: 5},
		{Title: "Identificación", Fixed: 14, Priority: 3},
		{Title: "Líder", Fixed: 5, Align: lipgloss.Center, Priority: 7},
	}, "Sin miembros registrados. Presione [a] para agregar.")
}

// NewDeceasedGrid creates the deceased members grid.
func NewDeceasedGrid() *Grid {
	return newGrid([]components.Column{
		{Title: "Nombres", Weight: 2, MinWidth: 12, Priority: 10},
		{Title: "Fallecimiento", Fixed: 13, Priority: 8},
		{Title: "Parentesco", Weight: 1, MinWidth: 10, Priority: 9},
		{Title: "Causa", Weight: 1, MinWidth: 10, Priority: 4},
	}, "Sin difuntos registrados. Presione [a] para agregar.")
}

// SetFamily fills the grid with living members. Ages are computed at asOf
// and members satisfying isLeader are marked.
func (g *Grid) SetFamily(members []models.FamilyMember, isLeader func(models.FamilyMember) bool, asOf time.Time) {
	rows := make([][]string, len(members))
	g.ids = make([]string, len(members))
	for i, m := range members {
		age := ""
		if a := m.Age(asOf); a >= 0 {
			age = fmt.Sprintf("%d", a)
		}
		leader := ""
		if isLeader != nil && isLeader(m) {
			leader = "★"
		}
		rows[i] = []string{
			m.Nombres,
			age,
			m.Relationship(),
			refName(m.Sexo),
			m.NumeroIdentificacion,
			leader,
		}
		g.ids[i] = m.ID
	}
	g.table.SetRows(rows)
}

// SetDeceased fills the grid with deceased members.
func (g *Grid) SetDeceased(members []models.DeceasedMember, dateLayout string) {
	rows := make([][]string, len(members))
	g.ids = make([]string, len(members))
	for i, m := range members {
		date := ""
		if m.FechaFallecimiento != nil {
			date = util.FormatDate(m.FechaFallecimiento.Time, dateLayout)
		}
		rows[i] = []string{
			m.Nombres,
			date,
			refName(m.Parentesco),
			m.CausaFallecimiento,
		}
		g.ids[i] = m.ID
	}
	g.table.SetRows(rows)
}

func refName(r *models.Ref) string {
	if r == nil {
		return ""
	}
	return r.Nombre
}

// SelectedID returns the id of the selected member, or "" when empty.
func (g *Grid) SelectedID() string {
	i := g.table.Selected()
	if i >= 0 && i < len(g.ids) {
		return g.ids[i]
	}
	return ""
}

// Len returns the number of members listed.
func (g *Grid) Len() int {
	return len(g.ids)
}

// HandleKey moves the selection.
func (g *Grid) HandleKey(key string) {
	switch key {
	case "up", "k":
		g.table.MoveUp()
	case "down", "j":
		g.table.MoveDown()
	case "home", "g":
		g.table.GoToTop()
	case "end", "G":
		g.table.GoToBottom()
	}
}

// Resize fits the grid to width and height.
func (g *Grid) Resize(width, height int) {
	g.table.Resize(width)
	g.table.SetVisibleRows(height)
}

// SetStyles applies theme styles to the underlying table.
func (g *Grid) SetStyles(header, row, rowAlt, selected, border lipgloss.Style) {
	g.table.SetStyles(header, row, rowAlt, selected, border)
}

// Render renders the grid.
func (g *Grid) Render() string {
	return g.table.Render()
}
