package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/task-graphql-api/internal/auth"
	"github.com/yukikurage/task-graphql-api/internal/constants"
	"github.com/yukikurage/task-graphql-api/internal/database"
	"github.com/yukikurage/task-graphql-api/internal/graph"
	"github.com/yukikurage/task-graphql-api/internal/observability"
	"github.com/yukikurage/task-graphql-api/internal/repository"
	"github.com/yukikurage/task-graphql-api/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GraphQLHandlerTestSuite drives the whole HTTP surface against an
// in-memory database.
type GraphQLHandlerTestSuite struct {
	suite.Suite
	ctx    context.Context
	db     *gorm.DB
	router *gin.Engine
	groups *services.GroupService
	users  *services.UserService
	prom   *observability.Prom
	schema graphql.Schema
}

type gqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message    string                 `json:"message"`
		Extensions map[string]interface{} `json:"extensions"`
	} `json:"errors"`
}

func TestGraphQLHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(GraphQLHandlerTestSuite))
}

func (suite *GraphQLHandlerTestSuite) SetupTest() {
	suite.ctx = context.Background()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	suite.Require().NoError(err)
	sqlDB, err := db.DB()
	suite.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	suite.Require().NoError(database.Migrate(db))
	suite.db = db

	jwt, err := auth.NewManager("handler-test-secret", "HS256", 5*time.Minute, time.Hour)
	suite.Require().NoError(err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	userRepo := repository.NewUserRepository(db)
	suite.users = services.NewUserService(userRepo)
	suite.groups = services.NewGroupService(repository.NewGroupRepository(db), userRepo)
	tasks := services.NewTaskService(repository.NewTaskRepository(db), repository.NewSubTaskRepository(db), userRepo, log)
	authSvc := services.NewAuthService(userRepo, repository.NewRefreshTokenRepository(db), jwt, services.WithAuthLogger(log))

	suite.Require().NoError(services.Seed(suite.ctx, suite.groups, suite.users, services.SeedManager{
		Username: "boss",
		Email:    "boss@example.com",
		Password: "boss-password",
	}))

	schema, err := graph.NewSchema(&graph.Resolver{Tasks: tasks, Users: suite.users, Auth: authSvc, Log: log})
	suite.Require().NoError(err)
	suite.schema = schema

	reg := prometheus.NewRegistry()
	suite.prom = observability.NewProm(reg)
	gin.SetMode(gin.TestMode)
	suite.router = NewRouter(RouterDeps{
		Schema:   schema,
		Identity: authSvc,
		Log:      log,
		Prom:     suite.prom,
		Gatherer: reg,
	})
}

func (suite *GraphQLHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

// Helper functions

func (suite *GraphQLHandlerTestSuite) post(body []byte, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", constants.BearerPrefix+token)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *GraphQLHandlerTestSuite) gql(token, query string, variables map[string]interface{}) gqlResponse {
	body, err := json.Marshal(GraphQLRequest{Query: query, Variables: variables})
	suite.Require().NoError(err)

	w := suite.post(body, token)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp gqlResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (suite *GraphQLHandlerTestSuite) field(resp gqlResponse, name string, out interface{}) {
	suite.Require().Empty(resp.Errors)
	suite.Require().NoError(json.Unmarshal(resp.Data[name], out))
}

func (suite *GraphQLHandlerTestSuite) errorCode(resp gqlResponse) string {
	suite.Require().NotEmpty(resp.Errors)
	code, _ := resp.Errors[0].Extensions["code"].(string)
	return code
}

func (suite *GraphQLHandlerTestSuite) login(username, password string) (string, string) {
	resp := suite.gql("", `mutation($u: String!, $p: String!) {
		tokenAuth(username: $u, password: $p) { token refreshToken }
	}`, map[string]interface{}{"u": username, "p": password})

	var out struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
	}
	suite.field(resp, "tokenAuth", &out)
	return out.Token, out.RefreshToken
}

func (suite *GraphQLHandlerTestSuite) signUp(username string) (string, string) {
	resp := suite.gql("", `mutation($in: UserInput!) {
		createUser(input: $in) { ok user { id } token }
	}`, map[string]interface{}{"in": map[string]interface{}{
		"username": username,
		"email":    username + "@example.com",
		"password": "employee-password",
	}})

	var out struct {
		OK    bool   `json:"ok"`
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	suite.field(resp, "createUser", &out)
	suite.Require().True(out.OK)
	return out.User.ID, out.Token
}

func (suite *GraphQLHandlerTestSuite) createTask(token, title, assignee string) string {
	input := map[string]interface{}{
		"title":       title,
		"description": "details",
		"dueDate":     "2030-06-01",
	}
	if assignee != "" {
		input["assignedToId"] = assignee
	}
	resp := suite.gql(token, `mutation($in: TaskInput!) {
		createTask(input: $in) { ok task { id status priority } }
	}`, map[string]interface{}{"in": input})

	var out struct {
		OK   bool `json:"ok"`
		Task struct {
			ID       string `json:"id"`
			Status   string `json:"status"`
			Priority string `json:"priority"`
		} `json:"task"`
	}
	suite.field(resp, "createTask", &out)
	suite.Require().True(out.OK)
	suite.Equal("TODO", out.Task.Status)
	suite.Equal("MEDIUM", out.Task.Priority)
	return out.Task.ID
}

// Tests

func (suite *GraphQLHandlerTestSuite) TestHealth() {
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"status":"ok"`)
	suite.NotEmpty(w.Header().Get("X-Request-Id"))
}

func (suite *GraphQLHandlerTestSuite) TestMalformedRequest() {
	w := suite.post([]byte(`{"variables": {}}`), "")
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Contains(w.Body.String(), "INVALID_INPUT")

	w = suite.post([]byte(`not json`), "")
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *GraphQLHandlerTestSuite) TestWhoami() {
	resp := suite.gql("", `{ whoami { username } }`, nil)
	suite.Equal("UNAUTHENTICATED", suite.errorCode(resp))

	token, _ := suite.login("boss", "boss-password")
	resp = suite.gql(token, `{ whoami { username isManager groups } }`, nil)

	var me struct {
		Username  string   `json:"username"`
		IsManager bool     `json:"isManager"`
		Groups    []string `json:"groups"`
	}
	suite.field(resp, "whoami", &me)
	suite.Equal("boss", me.Username)
	suite.True(me.IsManager)
	suite.Equal([]string{constants.ManagersGroup}, me.Groups)
}

func (suite *GraphQLHandlerTestSuite) TestTokenAuthErrors() {
	resp := suite.gql("", `mutation { tokenAuth(username: "boss", password: "wrong") { token } }`, nil)
	suite.Equal("INVALID_CREDENTIALS", suite.errorCode(resp))
	suite.Equal("Incorrect username or password", resp.Errors[0].Message)

	resp = suite.gql("", `mutation { tokenAuth(username: "ghost", password: "whatever") { token } }`, nil)
	suite.Equal("INVALID_CREDENTIALS", suite.errorCode(resp))
}

func (suite *GraphQLHandlerTestSuite) TestInvalidBearer() {
	resp := suite.gql("not-a-jwt", `mutation {
		createTask(input: {title: "x", description: "y", dueDate: "2030-01-01"}) { ok }
	}`, nil)
	suite.Equal("TOKEN_INVALID", suite.errorCode(resp))

	// reads degrade to anonymous
	resp = suite.gql("not-a-jwt", `{ allTasks { id } }`, nil)
	suite.Empty(resp.Errors)
	suite.JSONEq(`[]`, string(resp.Data["allTasks"]))
}

func (suite *GraphQLHandlerTestSuite) TestTaskLifecycle() {
	bossToken, _ := suite.login("boss", "boss-password")
	employeeID, employeeToken := suite.signUp("erin")
	_, strangerToken := suite.signUp("sam")

	taskID := suite.createTask(bossToken, "Quarterly report", employeeID)

	// the assignee sees it in myTasks
	var mine []struct {
		ID         string `json:"id"`
		AssignedTo struct {
			Username string `json:"username"`
		} `json:"assignedTo"`
	}
	suite.field(suite.gql(employeeToken, `{ myTasks { id assignedTo { username } } }`, nil), "myTasks", &mine)
	suite.Require().Len(mine, 1)
	suite.Equal(taskID, mine[0].ID)
	suite.Equal("erin", mine[0].AssignedTo.Username)

	// the assignee may only move the status; the title change is ignored
	resp := suite.gql(employeeToken, `mutation($id: ID!) {
		updateTask(id: $id, input: {title: "hijacked", status: "DONE"}) { ok task { title status } }
	}`, map[string]interface{}{"id": taskID})
	var updated struct {
		OK   bool `json:"ok"`
		Task struct {
			Title  string `json:"title"`
			Status string `json:"status"`
		} `json:"task"`
	}
	suite.field(resp, "updateTask", &updated)
	suite.Equal("Quarterly report", updated.Task.Title)
	suite.Equal("DONE", updated.Task.Status)

	// strangers cannot see or touch it
	resp = suite.gql(strangerToken, `query($id: ID!) { taskById(id: $id) { id } }`, map[string]interface{}{"id": taskID})
	suite.Empty(resp.Errors)
	suite.JSONEq(`null`, string(resp.Data["taskById"]))

	resp = suite.gql(strangerToken, `mutation($id: ID!) {
		updateTask(id: $id, input: {status: "TODO"}) { ok }
	}`, map[string]interface{}{"id": taskID})
	suite.Equal("PERMISSION_DENIED", suite.errorCode(resp))
	suite.True(strings.HasPrefix(resp.Errors[0].Message, "Permission Denied"))

	// subtasks
	resp = suite.gql(employeeToken, `mutation($in: SubTaskInput!) {
		createSubTask(input: $in) { ok subTask { id title status task { id } } }
	}`, map[string]interface{}{"in": map[string]interface{}{
		"taskId":      taskID,
		"title":       "Collect numbers",
		"description": "from finance",
	}})
	var created struct {
		OK      bool `json:"ok"`
		SubTask struct {
			ID     string `json:"id"`
			Title  string `json:"title"`
			Status string `json:"status"`
			Task   struct {
				ID string `json:"id"`
			} `json:"task"`
		} `json:"subTask"`
	}
	suite.field(resp, "createSubTask", &created)
	suite.Equal("TODO", created.SubTask.Status)
	suite.Equal(taskID, created.SubTask.Task.ID)

	var withSubtasks struct {
		Subtasks []struct {
			Title string `json:"title"`
		} `json:"subtasks"`
	}
	resp = suite.gql(bossToken, `query($id: ID!) { taskById(id: $id) { subtasks { title } } }`, map[string]interface{}{"id": taskID})
	suite.field(resp, "taskById", &withSubtasks)
	suite.Require().Len(withSubtasks.Subtasks, 1)
	suite.Equal("Collect numbers", withSubtasks.Subtasks[0].Title)

	// only managers delete tasks
	resp = suite.gql(employeeToken, `mutation($id: ID!) { deleteTask(id: $id) { ok } }`, map[string]interface{}{"id": taskID})
	suite.Equal("PERMISSION_DENIED", suite.errorCode(resp))

	resp = suite.gql(bossToken, `mutation($id: ID!) { deleteTask(id: $id) { ok message } }`, map[string]interface{}{"id": taskID})
	var deleted struct {
		OK      bool   `json:"ok"`
		Message string `json:"message"`
	}
	suite.field(resp, "deleteTask", &deleted)
	suite.True(deleted.OK)
	suite.Equal("Task deleted successfully", deleted.Message)

	resp = suite.gql(bossToken, `query($id: ID!) { subtasksForTask(taskId: $id) { id } }`, map[string]interface{}{"id": taskID})
	suite.Empty(resp.Errors)
	suite.JSONEq(`[]`, string(resp.Data["subtasksForTask"]))
}

func (suite *GraphQLHandlerTestSuite) TestCreateTaskErrors() {
	bossToken, _ := suite.login("boss", "boss-password")
	_, employeeToken := suite.signUp("erin")

	resp := suite.gql(employeeToken, `mutation {
		createTask(input: {title: "x", description: "y", dueDate: "2030-01-01"}) { ok }
	}`, nil)
	suite.Equal("PERMISSION_DENIED", suite.errorCode(resp))
	suite.Equal("Permission Denied: Only Managers can create tasks.", resp.Errors[0].Message)

	resp = suite.gql(bossToken, `mutation {
		createTask(input: {title: "x", description: "y", dueDate: "2030-01-01", status: "SOMEDAY"}) { ok }
	}`, nil)
	suite.Equal("VALIDATION_ERROR", suite.errorCode(resp))

	resp = suite.gql(bossToken, `mutation {
		createTask(input: {title: "x", description: "y", dueDate: "2030-01-01", assignedToId: "abc"}) { ok }
	}`, nil)
	suite.Equal("INVALID_INPUT", suite.errorCode(resp))
}

func (suite *GraphQLHandlerTestSuite) TestTaskPage() {
	bossToken, _ := suite.login("boss", "boss-password")
	for _, title := range []string{"one", "two", "three"} {
		suite.createTask(bossToken, title, "")
	}

	resp := suite.gql(bossToken, `{ taskPage(page: 1, limit: 2) { items { title } pageInfo { page limit total hasNext } } }`, nil)
	var page struct {
		Items []struct {
			Title string `json:"title"`
		} `json:"items"`
		PageInfo struct {
			Page    int  `json:"page"`
			Limit   int  `json:"limit"`
			Total   int  `json:"total"`
			HasNext bool `json:"hasNext"`
		} `json:"pageInfo"`
	}
	suite.field(resp, "taskPage", &page)
	suite.Len(page.Items, 2)
	suite.Equal(3, page.PageInfo.Total)
	suite.True(page.PageInfo.HasNext)
}

func (suite *GraphQLHandlerTestSuite) TestTokenRotation() {
	_, refresh := suite.login("boss", "boss-password")

	resp := suite.gql("", `mutation($t: String!) { refreshToken(token: $t) { token refreshToken payload } }`,
		map[string]interface{}{"t": refresh})
	var rotated struct {
		Token        string                 `json:"token"`
		RefreshToken string                 `json:"refreshToken"`
		Payload      map[string]interface{} `json:"payload"`
	}
	suite.field(resp, "refreshToken", &rotated)
	suite.NotEqual(refresh, rotated.RefreshToken)
	suite.Equal("boss", rotated.Payload["username"])

	// the consumed token cannot be used again
	resp = suite.gql("", `mutation($t: String!) { refreshAccessToken(refreshToken: $t) { token } }`,
		map[string]interface{}{"t": refresh})
	suite.Equal("TOKEN_INVALID", suite.errorCode(resp))

	resp = suite.gql("", `mutation($t: String!) { verifyToken(token: $t) { payload } }`,
		map[string]interface{}{"t": rotated.Token})
	suite.Empty(resp.Errors)

	resp = suite.gql("", `mutation($t: String!) { revokeToken(refreshToken: $t) { ok revoked } }`,
		map[string]interface{}{"t": rotated.RefreshToken})
	suite.JSONEq(`{"ok": true, "revoked": true}`, string(resp.Data["revokeToken"]))

	resp = suite.gql("", `mutation($t: String!) { revokeToken(refreshToken: $t) { ok revoked } }`,
		map[string]interface{}{"t": rotated.RefreshToken})
	suite.JSONEq(`{"ok": true, "revoked": false}`, string(resp.Data["revokeToken"]))
}

func (suite *GraphQLHandlerTestSuite) TestUpdateUser() {
	_, token := suite.signUp("erin")

	resp := suite.gql(token, `mutation {
		updateUser(input: {firstName: "Erin", department: "Ops", password: ""}) { ok user { firstName department } }
	}`, nil)
	suite.JSONEq(`{"ok": true, "user": {"firstName": "Erin", "department": "Ops"}}`, string(resp.Data["updateUser"]))

	// the password was kept
	suite.login("erin", "employee-password")

	resp = suite.gql(token, `mutation { updateUser(input: {email: "boss@example.com"}) { ok } }`, nil)
	suite.Equal("CONFLICT", suite.errorCode(resp))
}

func (suite *GraphQLHandlerTestSuite) TestMetricsEndpoint() {
	suite.gql("", `{ allTasks { id } }`, nil)

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "graphql_operations_total")
}

func (suite *GraphQLHandlerTestSuite) TestOperationLabelsIgnoreClientNames() {
	for _, name := range []string{"Dashboard", "RandomName1234"} {
		body, err := json.Marshal(GraphQLRequest{
			Query:         "query " + name + " { allTasks { id } }",
			OperationName: name,
		})
		suite.Require().NoError(err)
		suite.post(body, "")
	}

	body, err := json.Marshal(GraphQLRequest{Query: "{ allTasks {", OperationName: "Broken"})
	suite.Require().NoError(err)
	suite.post(body, "")

	// allTasks from both named queries, plus the unparsable document
	suite.Equal(2, testutil.CollectAndCount(suite.prom.OperationsTotal))
	suite.Equal(1.0, testutil.ToFloat64(suite.prom.OperationsTotal.WithLabelValues("invalid", "error")))
	suite.Equal(2.0, testutil.ToFloat64(suite.prom.OperationsTotal.WithLabelValues("allTasks", "ok")))

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	suite.NotContains(w.Body.String(), "RandomName1234")
	suite.NotContains(w.Body.String(), "Broken")
}

func (suite *GraphQLHandlerTestSuite) TestOperationLabelSelectsNamedOperation() {
	h := NewGraphQLHandler(suite.schema, nil, nil)
	doc := `query A { whoami { id } } mutation B { createTask(input: {title: "x"}) { ok } }`

	suite.Equal("createTask", h.operationLabel(doc, "B"))
	suite.Equal("whoami", h.operationLabel(doc, "A"))
	suite.Equal("other", h.operationLabel(doc, "Missing"))
	suite.Equal("other", h.operationLabel(`{ __typename }`, ""))
	suite.Equal("invalid", h.operationLabel(`{`, ""))
}
