package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasbeltran/feria/internal/api"
	"github.com/matiasbeltran/feria/internal/domain"
	"github.com/matiasbeltran/feria/internal/reservation"
	"github.com/matiasbeltran/feria/internal/store"
	"github.com/matiasbeltran/feria/internal/teatest"
)

// newTestState wires an App against a scripted HTTP server and an in-memory
// local store, logged in as the given user.
func newTestState(t *testing.T, user *domain.User, mux *http.ServeMux) *SharedState {
	t.Helper()

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	db, err := store.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	creds := store.NewCredentialRepo(db)
	require.NoError(t, creds.Save(&store.Credential{
		Token: "tok-test", UserID: user.ID, UserName: user.Name, Role: user.Role,
	}))

	cfg := api.DefaultConfig()
	cfg.BaseURL = srv.URL

	app := &App{
		API:     api.NewClient(cfg, api.TokenSourceFunc(creds.Token), nil),
		Creds:   creds,
		Returns: store.NewReturnRepo(db),
		Config:  cfg,
	}

	return &SharedState{App: app, User: user, Workflow: app.NewWorkflow()}
}

func artisan() *domain.User {
	return &domain.User{ID: 10, Name: "Nora", Role: domain.RoleArtisan}
}

// routesForEligibleArtisan scripts an approved two-plot request with no
// payment yet, plus a 2x2 map where one cell has no plot and one is occupied.
func routesForEligibleArtisan() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/solicitudes", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"usuario_id":10,"titulo":"Ceramics",
			"superficie_m2":8,"estado":"approved"}]`))
	})
	mux.HandleFunc("/api/v1/pago/estado", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"none","parcelas_asignadas":0}`))
	})
	mux.HandleFunc("/api/v1/mapa/parcelas", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"filas":2,"columnas":2,"parcelas":[
			{"id":1,"fila":0,"columna":0,"habilitada":true,"ocupada":false},
			{"id":2,"fila":0,"columna":1,"habilitada":true,"ocupada":true},
			{"id":3,"fila":1,"columna":0,"habilitada":true,"ocupada":false}
		]}`))
	})
	return mux
}

func makeEligible(t *testing.T, state *SharedState) {
	t.Helper()
	elig, err := state.Workflow.CheckEligibility(context.Background(), state.User.ID)
	require.NoError(t, err)
	require.True(t, elig.Eligible)
	require.Equal(t, 2, elig.Remaining)
}

func TestGridView_SelectionFlow(t *testing.T) {
	state := newTestState(t, artisan(), routesForEligibleArtisan())
	makeEligible(t, state)

	d := teatest.New(t, newGridView(state))
	d.DrainInit()

	require.Equal(t, reservation.PhaseSelecting, state.Workflow.Phase())

	// Select the free plot at (0,0).
	d.PressSpace()
	sel := state.Workflow.Selection()
	require.NotNil(t, sel)
	assert.True(t, sel.Contains(1))

	// The occupied plot at (0,1) is refused with a visible notice.
	d.PressRight()
	d.PressSpace()
	assert.False(t, sel.Contains(2))
	assert.Contains(t, d.View(), "occupied")

	// The unconfigured cell at (1,1) is refused too.
	d.PressDown()
	d.PressSpace()
	assert.Contains(t, d.View(), "no plot")

	// Complete the selection at (1,0); the confirm hint appears.
	d.PressLeft()
	d.PressSpace()
	assert.True(t, sel.Full())
	assert.Contains(t, d.View(), "Press enter to confirm")
}

func TestGridView_SelectionBoundEnforced(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/solicitudes", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"usuario_id":10,"titulo":"Ceramics",
			"superficie_m2":8,"estado":"approved"}]`))
	})
	mux.HandleFunc("/api/v1/pago/estado", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"none","parcelas_asignadas":0}`))
	})
	// Three free plots for a two-plot request, so the third toggle is
	// refused by the bound, not by availability.
	mux.HandleFunc("/api/v1/mapa/parcelas", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"filas":2,"columnas":2,"parcelas":[
			{"id":1,"fila":0,"columna":0,"habilitada":true,"ocupada":false},
			{"id":2,"fila":0,"columna":1,"habilitada":true,"ocupada":false},
			{"id":3,"fila":1,"columna":0,"habilitada":true,"ocupada":false}
		]}`))
	})
	state := newTestState(t, artisan(), mux)
	makeEligible(t, state)

	d := teatest.New(t, newGridView(state))
	d.DrainInit()

	d.PressSpace() // (0,0) -> plot 1
	d.PressRight()
	d.PressSpace() // (0,1) -> plot 2
	sel := state.Workflow.Selection()
	require.True(t, sel.Full())

	d.PressDown()
	d.PressLeft()
	d.PressSpace() // (1,0) -> plot 3, over the bound
	assert.False(t, sel.Contains(3))
	assert.Contains(t, d.View(), "max selection reached")
	assert.True(t, sel.Contains(1))
	assert.True(t, sel.Contains(2))

	// Deselecting frees a slot; the third plot then fits.
	d.PressUp()
	d.PressRight()
	d.PressSpace()
	assert.False(t, sel.Contains(2))
	d.PressDown()
	d.PressLeft()
	d.PressSpace()
	assert.True(t, sel.Contains(3))
	assert.True(t, sel.Full())
}

func TestGridView_StaleSnapshotDiscarded(t *testing.T) {
	state := newTestState(t, artisan(), routesForEligibleArtisan())
	v := newGridView(state)
	v.loading = true
	v.seq = 2 // two loads in flight

	// The older response arrives after the newer one: it must be dropped.
	fresh := &domain.Grid{Rows: 2, Cols: 2, Plots: []domain.Plot{{ID: 9, Row: 0, Col: 0, Enabled: true}}}
	stale := &domain.Grid{Rows: 1, Cols: 1}

	model, _ := v.Update(gridLoadedMsg{seq: 2, grid: fresh})
	v = model.(*gridView)
	model, _ = v.Update(gridLoadedMsg{seq: 1, grid: stale})
	v = model.(*gridView)

	require.NotNil(t, v.grid)
	assert.Equal(t, 2, v.grid.Rows)
	assert.NotNil(t, v.grid.ByID(9))
}

func TestGridView_BulkModeForOrganizer(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/admin/parcelas", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"filas":1,"columnas":2,"parcelas":[
			{"id":1,"fila":0,"columna":0,"habilitada":false,"ocupada":false},
			{"id":2,"fila":0,"columna":1,"habilitada":true,"ocupada":false}
		]}`))
	})
	var bulkPath string
	mux.HandleFunc("/api/v1/admin/parcelas/habilitar", func(w http.ResponseWriter, r *http.Request) {
		bulkPath = r.URL.Path
		w.Write([]byte(`{}`))
	})

	organizer := &domain.User{ID: 2, Name: "Org", Role: domain.RoleOrganizer}
	state := newTestState(t, organizer, mux)

	d := teatest.New(t, newGridView(state))
	d.DrainInit()

	// Enter bulk mode, mark the disabled plot, enable it.
	d.PressKey('b')
	d.PressSpace()
	d.PressKey('e')

	assert.Equal(t, "/api/v1/admin/parcelas/habilitar", bulkPath)
	assert.Contains(t, d.View(), "Availability updated")
}

func TestPaymentView_ReturnURLSettlesImmediately(t *testing.T) {
	settled := false
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/pago/estado", func(w http.ResponseWriter, r *http.Request) {
		if settled {
			w.Write([]byte(`{"status":"approved","pago_id":7,"parcelas_asignadas":2}`))
			return
		}
		w.Write([]byte(`{"status":"none"}`))
	})
	var checkedPath string
	mux.HandleFunc("/api/v1/pago/check-and-auto-approve/", func(w http.ResponseWriter, r *http.Request) {
		checkedPath = r.URL.Path
		settled = true
		w.Write([]byte(`{"status":"auto_approved","pago_id":7,"parcelas_asignadas":2}`))
	})

	state := newTestState(t, artisan(), mux)

	d := teatest.New(t, newPaymentView(state))
	d.DrainInit()

	d.Type("https://x.test/back?external_reference=ref-7")
	d.PressEnter()

	assert.Equal(t, "/api/v1/pago/check-and-auto-approve/ref-7", checkedPath)
	assert.Equal(t, reservation.PhaseSettled, state.Workflow.Phase())
	assert.Contains(t, d.View(), "APPROVED")
	assert.Contains(t, d.View(), "Payment approved")
}

func TestPaymentView_PendingSchedulesSingleRecheck(t *testing.T) {
	checks := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/pago/estado", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"none"}`))
	})
	mux.HandleFunc("/api/v1/pago/check-and-auto-approve/", func(w http.ResponseWriter, r *http.Request) {
		checks++
		w.Write([]byte(`{"status":"pending"}`))
	})

	state := newTestState(t, artisan(), mux)

	d := teatest.New(t, newPaymentView(state))
	d.DrainInit()

	d.Type("https://x.test/back?pref_id=p1")
	d.PressEnter()

	// First check ran; the delayed recheck is only scheduled (the driver
	// drops timer commands), so the counter stays at one.
	assert.Equal(t, 1, checks)
	assert.Contains(t, d.View(), "checking once more")

	// Simulate the tick firing: the second and final check runs.
	d.Send(recheckTickMsg{})
	assert.Equal(t, 2, checks)

	// Further ticks must not produce more checks.
	d.Send(recheckTickMsg{})
	assert.Equal(t, 2, checks)
}

func TestPaymentView_AwaitingKeepsBudgetForReturn(t *testing.T) {
	checks := 0
	var checkedPath string
	mux := http.NewServeMux()
	mux.HandleFunc("/solicitudes", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"usuario_id":10,"titulo":"Ceramics",
			"superficie_m2":8,"estado":"approved"}]`))
	})
	mux.HandleFunc("/api/v1/pago/estado", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"none"}`))
	})
	mux.HandleFunc("/api/v1/parcelas/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/api/v1/pago/crear-preferencia", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"preference_id":"PREF-1"}`))
	})
	mux.HandleFunc("/api/v1/pago/check-and-auto-approve/", func(w http.ResponseWriter, r *http.Request) {
		checks++
		checkedPath = r.URL.Path
		w.Write([]byte(`{"status":"auto_approved","pago_id":7,"parcelas_asignadas":2}`))
	})

	state := newTestState(t, artisan(), mux)
	makeEligible(t, state)

	sel, err := state.Workflow.BeginSelection()
	require.NoError(t, err)
	require.NoError(t, sel.Toggle(&domain.Plot{ID: 1, Enabled: true}))
	require.NoError(t, sel.Toggle(&domain.Plot{ID: 2, Enabled: true}))
	_, err = state.Workflow.Confirm(context.Background())
	require.NoError(t, err)
	require.Equal(t, reservation.PhaseAwaiting, state.Workflow.Phase())

	// Entering the payment view right after confirming must not consume
	// the persisted preference id or spend any checks: the budget belongs
	// to the return from the provider, which has not happened yet.
	d := teatest.New(t, newPaymentView(state))
	d.DrainInit()
	assert.Zero(t, checks)
	assert.Equal(t, reservation.PhaseAwaiting, state.Workflow.Phase())

	// The pasted return URL carries the reference the checks must use.
	d.Type("https://x.test/back?external_reference=EXT-9")
	d.PressEnter()
	assert.Equal(t, 1, checks)
	assert.Equal(t, "/api/v1/pago/check-and-auto-approve/EXT-9", checkedPath)
	assert.Equal(t, reservation.PhaseSettled, state.Workflow.Phase())

	// The persisted copy went with that check; nothing lingers to
	// re-trigger settlement on a later launch.
	ref, err := state.App.Returns.ConsumePendingReturn()
	require.NoError(t, err)
	assert.Empty(t, ref)
}

func TestPaymentView_ResumesPersistedReturn(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/pago/estado", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"pending"}`))
	})
	checks := 0
	mux.HandleFunc("/api/v1/pago/check-and-auto-approve/", func(w http.ResponseWriter, r *http.Request) {
		checks++
		w.Write([]byte(`{"status":"approved","pago_id":3}`))
	})

	state := newTestState(t, artisan(), mux)
	require.NoError(t, state.App.Returns.SavePendingReturn("ref-restart"))

	d := teatest.New(t, newPaymentView(state))
	d.DrainInit()

	assert.Equal(t, 1, checks)
	assert.Equal(t, reservation.PhaseSettled, state.Workflow.Phase())

	// The reference was consumed on read: a second view finds nothing.
	ref, err := state.App.Returns.ConsumePendingReturn()
	require.NoError(t, err)
	assert.Empty(t, ref)
}

func TestRequestsView_ListAndFilter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/solicitudes", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id":1,"usuario_id":10,"titulo":"Ceramics","superficie_m2":8,"estado":"approved"},
			{"id":2,"usuario_id":10,"titulo":"Weaving","superficie_m2":4,"estado":"pending"}
		]`))
	})

	state := newTestState(t, artisan(), mux)

	d := teatest.New(t, newRequestsView(state))
	d.DrainInit()

	view := d.View()
	assert.Contains(t, view, "Ceramics")
	assert.Contains(t, view, "Weaving")

	// Substring filter narrows the list client-side.
	d.PressKey('/')
	d.Type("weav")
	d.PressEnter()

	view = d.View()
	assert.NotContains(t, view, "Ceramics")
	assert.Contains(t, view, "Weaving")
}

func TestDashboard_ShowsIneligibilityReason(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/solicitudes", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"usuario_id":10,"titulo":"Ceramics",
			"superficie_m2":4,"estado":"approved"}]`))
	})
	mux.HandleFunc("/api/v1/pago/estado", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"approved","parcelas_asignadas":1}`))
	})

	state := newTestState(t, artisan(), mux)

	d := teatest.New(t, newDashboardView(state))
	d.DrainInit()

	assert.Contains(t, d.View(), reservation.ReasonPaymentApproved)
	assert.Equal(t, reservation.PhaseIneligible, state.Workflow.Phase())
}

func TestAppModel_AuthExpiredResetsToLogin(t *testing.T) {
	state := newTestState(t, artisan(), http.NewServeMux())
	m := appModel{state: state, viewStack: []View{newDashboardView(state), newGridView(state)}}

	d := teatest.New(t, m)
	d.Send(authExpiredMsg{})

	root := d.Model.(appModel)
	require.Len(t, root.viewStack, 1)
	assert.Equal(t, ViewLogin, root.viewStack[0].ID())
	assert.Nil(t, state.User)
	assert.Nil(t, state.Workflow)
}
