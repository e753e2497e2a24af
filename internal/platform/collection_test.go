package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/azdo-tools/pipeline-migration-workbench/internal/models"
)

func TestListDecodesEntities(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/DefaultCollection/Sandbox/_apis/git/repositories" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"count": 1,
			"value": []map[string]string{
				{"id": "r1", "name": "app", "remoteUrl": "https://host/_git/app"},
			},
		})
	}))
	defer ts.Close()

	coll := NewCollection(testConnection(t, ts))
	repos, err := coll.Repositories(context.Background())
	if err != nil {
		t.Fatalf("Repositories: %v", err)
	}
	if len(repos) != 1 || repos[0].ID != "r1" || repos[0].Name != "app" {
		t.Errorf("Repositories = %+v", repos)
	}
}

func TestAgentPoolsAreCollectionScoped(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]interface{}{"count": 0, "value": []interface{}{}})
	}))
	defer ts.Close()

	coll := NewCollection(testConnection(t, ts))
	if _, err := coll.AgentPools(context.Background()); err != nil {
		t.Fatalf("AgentPools: %v", err)
	}
	if gotPath != "/DefaultCollection/_apis/distributedtask/pools" {
		t.Errorf("pools path = %q, want no project segment", gotPath)
	}
}

func TestCreateStripsSourceID(t *testing.T) {
	var gotBody map[string]interface{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "tgt-77"})
	}))
	defer ts.Close()

	coll := NewCollection(testConnection(t, ts))
	maps, err := coll.CreateServiceConnections(context.Background(), []models.ServiceConnection{
		{ID: "src-1", Name: "registry", Type: "dockerregistry"},
	})
	if err != nil {
		t.Fatalf("CreateServiceConnections: %v", err)
	}

	if _, ok := gotBody["id"]; ok {
		t.Error("creation payload must not carry the source id")
	}
	if gotBody["name"] != "registry" {
		t.Errorf("payload name = %v", gotBody["name"])
	}
	if len(maps) != 1 {
		t.Fatalf("got %d mappings, want 1", len(maps))
	}
	if maps[0].SourceID != "src-1" || maps[0].TargetID != "tgt-77" {
		t.Errorf("mapping = %+v", maps[0])
	}
}

func TestCreateFailsBatchOnError(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 2 {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message":"duplicate"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "tgt-1"})
	}))
	defer ts.Close()

	coll := NewCollection(testConnection(t, ts))
	_, err := coll.CreateVariableGroups(context.Background(), []models.VariableGroup{
		{ID: "s1", Name: "a"},
		{ID: "s2", Name: "b"},
		{ID: "s3", Name: "c"},
	})
	if err == nil {
		t.Fatal("expected batch error")
	}
	if calls != 2 {
		t.Errorf("made %d calls, want stop at first failure", calls)
	}
}

func TestCreateRejectsResponseWithoutID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	coll := NewCollection(testConnection(t, ts))
	_, err := coll.CreateTaskGroups(context.Background(), []models.TaskGroup{{ID: "s1", Name: "tg"}})
	if err == nil {
		t.Fatal("expected error for create response without id")
	}
}

func TestUpdateTaskGroupVersionsKeepsRootID(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "root-9"})
	}))
	defer ts.Close()

	coll := NewCollection(testConnection(t, ts))
	roots := []models.TaskGroup{{ID: "root-9", Name: "deploy", Version: models.Version{Major: 1}}}
	updates := []models.TaskGroup{{ID: "src-5", Name: "Deploy", Version: models.Version{Major: 2}}}

	if err := coll.UpdateTaskGroupVersions(context.Background(), nil, roots, updates); err != nil {
		t.Fatalf("UpdateTaskGroupVersions: %v", err)
	}

	if gotPath != "/DefaultCollection/Sandbox/_apis/distributedtask/taskgroups/root-9" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody["id"] != "root-9" {
		t.Errorf("payload id = %v, want the target root id", gotBody["id"])
	}
}
