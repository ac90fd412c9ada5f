package screen

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/canvass/internal/model"
	"github.com/sells-group/canvass/internal/nav"
	"github.com/sells-group/canvass/internal/store"
)

// EditTarget is the business open in the edit form and its row index in the
// current list.
type EditTarget struct {
	Business model.Business `json:"business"`
	Index    int            `json:"index"`
}

// ListView is one rendered pass of the list screen.
type ListView struct {
	Query   string           `json:"query"`
	Rows    []model.Business `json:"rows"`
	Editing *EditTarget      `json:"editing,omitempty"`
}

// ListScreen shows the selected company's businesses and owns the edit form.
type ListScreen struct {
	mu      sync.Mutex
	state   *store.State
	bus     *nav.Bus
	query   string
	editing string
}

// NewListScreen wires a list screen.
func NewListScreen(state *store.State, bus *nav.Bus) *ListScreen {
	return &ListScreen{state: state, bus: bus}
}

// Rows returns the selected company's businesses matching query.
func (l *ListScreen) Rows(query string) []model.Business {
	var out []model.Business
	for _, b := range l.state.ListByCompany(l.state.SelectedCompany()) {
		if Matches(b, query) {
			out = append(out, b)
		}
	}
	return out
}

// Refresh filters by query and consumes a pending edit message. An edit for a
// business missing from the filtered rows is dropped.
func (l *ListScreen) Refresh(query string) ListView {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.query = query
	rows := l.Rows(query)

	if msg, ok := l.bus.Receive(nav.ListScreen); ok {
		if edit, ok := msg.(nav.EditBusiness); ok {
			if indexOf(rows, edit.BusinessID) >= 0 {
				l.editing = edit.BusinessID
			} else {
				zap.L().Debug("screen: edit target not in list", zap.String("business_id", edit.BusinessID))
			}
		}
	}

	v := ListView{Query: query, Rows: rows}
	if t, ok := l.target(rows); ok {
		v.Editing = &t
	}
	return v
}

func (l *ListScreen) target(rows []model.Business) (EditTarget, bool) {
	if l.editing == "" {
		return EditTarget{}, false
	}
	i := indexOf(rows, l.editing)
	if i < 0 {
		if _, exists := l.state.FindByID(l.editing); !exists {
			l.editing = ""
		}
		return EditTarget{}, false
	}
	return EditTarget{Business: rows[i], Index: i}, true
}

// View posts a select message for id to the map screen. It reports false for
// unknown ids.
func (l *ListScreen) View(id string) bool {
	b, ok := l.state.FindByID(id)
	if !ok {
		return false
	}
	msg := nav.SelectBusiness{BusinessID: b.ID, ForceZoom: SelectZoom}
	if c, ok := b.Coordinate(); ok {
		msg.Center = &c
	}
	l.bus.Send(msg)
	return true
}

// StartEdit opens the edit form for id.
func (l *ListScreen) StartEdit(id string) (EditTarget, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rows := l.Rows(l.query)
	i := indexOf(rows, id)
	if i < 0 {
		return EditTarget{}, false
	}
	l.editing = id
	return EditTarget{Business: rows[i], Index: i}, true
}

// Editing returns the open edit target, if any.
func (l *ListScreen) Editing() (EditTarget, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.target(l.Rows(l.query))
}

// CancelEdit closes the edit form.
func (l *ListScreen) CancelEdit() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.editing = ""
}

// SaveEdit applies patch to the business in the edit form and closes it.
func (l *ListScreen) SaveEdit(ctx context.Context, patch model.BusinessPatch) (model.Business, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.editing == "" {
		return model.Business{}, eris.New("screen: no business being edited")
	}
	b, err := l.state.Update(ctx, l.editing, patch)
	if err != nil {
		return model.Business{}, eris.Wrap(err, "screen: save edit")
	}
	l.editing = ""
	return b, nil
}

func indexOf(rows []model.Business, id string) int {
	for i, b := range rows {
		if b.ID == id {
			return i
		}
	}
	return -1
}
