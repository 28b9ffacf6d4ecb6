package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nhle/stickylist/internal/model"
)

// Backend is an in-memory stand-in for the checklist REST service. It
// speaks the same wire format as the production backend (Mongo-style
// "_id" keys, tasks carrying "title") so gateway normalization is covered.
type Backend struct {
	server *httptest.Server

	mu          sync.Mutex
	token       string
	users       map[string]string
	checklists  []model.Checklist
	tasks       map[string][]model.Task
	nextID      int
	failStatus  int
	failMethods map[string]int
	delay       time.Duration
	requests    []RecordedRequest
}

// RecordedRequest is one request seen by the Backend.
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	Body          map[string]any
}

// NewBackend starts a Backend that accepts token as the only valid bearer
// credential. It is shut down when the test completes.
func NewBackend(t *testing.T, token string) *Backend {
	t.Helper()

	b := &Backend{
		token:       token,
		users:       make(map[string]string),
		tasks:       make(map[string][]model.Task),
		failMethods: make(map[string]int),
	}
	b.server = httptest.NewServer(b.routes())
	t.Cleanup(b.server.Close)
	return b
}

// URL returns the base URL to configure the gateway with.
func (b *Backend) URL() string { return b.server.URL }

// AddUser registers credentials accepted by the login endpoint.
func (b *Backend) AddUser(email, password string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[email] = password
}

// FailWith makes every API request answer with status. Zero restores
// normal behavior.
func (b *Backend) FailWith(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failStatus = status
}

// FailMethod makes requests using method answer with status. Zero
// restores normal behavior.
func (b *Backend) FailMethod(method string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if status == 0 {
		delete(b.failMethods, method)
		return
	}
	b.failMethods[method] = status
}

// SetDelay delays every response by d.
func (b *Backend) SetDelay(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delay = d
}

// SeedChecklist stores a checklist as if it had been created earlier.
func (b *Backend) SeedChecklist(title string) model.Checklist {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := model.Checklist{ID: b.newID(), Title: title, CreatedAt: time.Now().UTC()}
	b.checklists = append(b.checklists, c)
	return c
}

// SeedTask stores a task in checklistID.
func (b *Backend) SeedTask(checklistID, text string, color model.Color) model.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	task := model.Task{
		ID:          b.newID(),
		Text:        text,
		Color:       color,
		CreatedAt:   time.Now().UTC(),
		ChecklistID: checklistID,
	}
	b.tasks[checklistID] = append(b.tasks[checklistID], task)
	return task
}

// Checklists returns the server-side checklists.
func (b *Backend) Checklists() []model.Checklist {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Checklist(nil), b.checklists...)
}

// Tasks returns the server-side tasks of checklistID.
func (b *Backend) Tasks(checklistID string) []model.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Task(nil), b.tasks[checklistID]...)
}

// Requests returns every request received so far.
func (b *Backend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RecordedRequest(nil), b.requests...)
}

func (b *Backend) newID() string {
	b.nextID++
	return fmt.Sprintf("srv%04d", b.nextID)
}

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(b.record)
	r.Use(b.inject)

	r.Post("/api/auth/login", b.login)
	r.Post("/api/auth/register", b.register)

	r.Group(func(r chi.Router) {
		r.Use(b.requireToken)

		r.Get("/api/checklists", b.listChecklists)
		r.Post("/api/checklists", b.createChecklist)
		r.Delete("/api/checklists/{id}", b.deleteChecklist)

		r.Get("/api/tasks/checklist/{checklistID}", b.listTasks)
		r.Post("/api/tasks", b.createTask)
		r.Patch("/api/tasks/{id}", b.updateTask)
		r.Delete("/api/tasks/{id}", b.deleteTask)
	})

	return r
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if r.Body != nil && r.ContentLength != 0 {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}

		b.mu.Lock()
		b.requests = append(b.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			Body:          body,
		})
		b.mu.Unlock()

		ctx := r.Context()
		next.ServeHTTP(w, r.WithContext(withBody(ctx, body)))
	})
}

func (b *Backend) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		delay := b.delay
		status := b.failStatus
		if s, ok := b.failMethods[r.Method]; ok {
			status = s
		}
		b.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if status != 0 {
			writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		want := "Bearer " + b.token
		b.mu.Unlock()

		if r.Header.Get("Authorization") != want {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Token is not valid"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	body := bodyFrom(r)
	email, _ := body["email"].(string)
	password, _ := body["password"].(string)

	b.mu.Lock()
	stored, ok := b.users[email]
	token := b.token
	b.mu.Unlock()

	if !ok || stored != password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": map[string]string{"email": email}})
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	body := bodyFrom(r)
	email, _ := body["email"].(string)
	password, _ := body["password"].(string)

	if !strings.Contains(email, "@") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Email is malformed"})
		return
	}

	b.mu.Lock()
	_, exists := b.users[email]
	if !exists {
		b.users[email] = password
	}
	token := b.token
	b.mu.Unlock()

	if exists {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "User already exists"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"token": token})
}

func (b *Backend) listChecklists(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	out := make([]map[string]any, len(b.checklists))
	for i, c := range b.checklists {
		out[i] = checklistWire(c, len(b.tasks[c.ID]))
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"checklists": out})
}

func (b *Backend) createChecklist(w http.ResponseWriter, r *http.Request) {
	title, _ := bodyFrom(r)["title"].(string)
	if strings.TrimSpace(title) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Title is required"})
		return
	}

	b.mu.Lock()
	c := model.Checklist{ID: b.newID(), Title: title, CreatedAt: time.Now().UTC()}
	b.checklists = append([]model.Checklist{c}, b.checklists...)
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"checklist": checklistWire(c, 0)})
}

func (b *Backend) deleteChecklist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, c := range b.checklists {
		if c.ID == id {
			b.checklists = append(b.checklists[:i], b.checklists[i+1:]...)
			delete(b.tasks, id)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Checklist deleted"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Checklist not found"})
}

func (b *Backend) listTasks(w http.ResponseWriter, r *http.Request) {
	checklistID := chi.URLParam(r, "checklistID")

	b.mu.Lock()
	tasks := b.tasks[checklistID]
	out := make([]map[string]any, len(tasks))
	for i, t := range tasks {
		out[i] = taskWire(t)
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"tasks": out})
}

func (b *Backend) createTask(w http.ResponseWriter, r *http.Request) {
	body := bodyFrom(r)
	title, _ := body["title"].(string)
	checklistID, _ := body["checklist"].(string)
	color, _ := body["color"].(string)

	b.mu.Lock()
	task := model.Task{
		ID:          b.newID(),
		Text:        title,
		Color:       model.Color(color),
		CreatedAt:   time.Now().UTC(),
		ChecklistID: checklistID,
	}
	b.tasks[checklistID] = append([]model.Task{task}, b.tasks[checklistID]...)
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"task": taskWire(task)})
}

func (b *Backend) updateTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	body := bodyFrom(r)

	b.mu.Lock()
	defer b.mu.Unlock()
	for cid, tasks := range b.tasks {
		for i := range tasks {
			if tasks[i].ID != id {
				continue
			}
			if v, ok := body["completed"].(bool); ok {
				tasks[i].Completed = v
			}
			if v, ok := body["pinned"].(bool); ok {
				tasks[i].Pinned = v
			}
			b.tasks[cid] = tasks
			writeJSON(w, http.StatusOK, map[string]any{"task": taskWire(tasks[i])})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Task not found"})
}

func (b *Backend) deleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	b.mu.Lock()
	defer b.mu.Unlock()
	for cid, tasks := range b.tasks {
		for i := range tasks {
			if tasks[i].ID == id {
				b.tasks[cid] = append(tasks[:i], tasks[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Task not found"})
}

func checklistWire(c model.Checklist, taskCount int) map[string]any {
	return map[string]any{
		"_id":       c.ID,
		"title":     c.Title,
		"createdAt": c.CreatedAt.Format(time.RFC3339Nano),
		"taskCount": taskCount,
	}
}

func taskWire(t model.Task) map[string]any {
	return map[string]any{
		"_id":       t.ID,
		"title":     t.Text,
		"color":     string(t.Color),
		"completed": t.Completed,
		"pinned":    t.Pinned,
		"createdAt": t.CreatedAt.Format(time.RFC3339Nano),
		"checklist": t.ChecklistID,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type bodyKey struct{}

func withBody(ctx context.Context, body map[string]any) context.Context {
	return context.WithValue(ctx, bodyKey{}, body)
}

// bodyFrom returns the JSON body decoded by the record middleware.
func bodyFrom(r *http.Request) map[string]any {
	body, _ := r.Context().Value(bodyKey{}).(map[string]any)
	if body == nil {
		return map[string]any{}
	}
	return body
}
