package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"enrollapi/internal/authz"
	"enrollapi/internal/http/middleware"
	"enrollapi/internal/service"
	serviceMocks "enrollapi/internal/service/mocks"
	"enrollapi/internal/workflow"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*fiber.App, sqlmock.Sqlmock, *serviceMocks.MockEnrollmentService, *serviceMocks.MockSubscriptionService, *serviceMocks.MockMessageService) {
	t.Helper()

	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	enrollSvc := new(serviceMocks.MockEnrollmentService)
	subSvc := new(serviceMocks.MockSubscriptionService)
	msgSvc := new(serviceMocks.MockMessageService)

	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})
	app.Use(middleware.Identity())
	RegisterRoutes(app, db, enrollSvc, subSvc, msgSvc)

	return app, dbMock, enrollSvc, subSvc, msgSvc
}

func asApplicant(req *http.Request) *http.Request {
	req.Header.Set(middleware.ActorHeader, "actor-1")
	req.Header.Set(middleware.ClassHeader, "applicant")
	return req
}

func asApprover(req *http.Request) *http.Request {
	req.Header.Set(middleware.ActorHeader, "reviewer-1")
	req.Header.Set(middleware.ClassHeader, "approver")
	return req
}

func TestHealthCheck(t *testing.T) {
	app, dbMock, _, _, _ := newTestApp(t)

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app, _, _, _, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListEnrollments(t *testing.T) {
	app, _, enrollSvc, _, _ := newTestApp(t)

	t.Run("success", func(t *testing.T) {
		expected := []service.EnrollmentView{{ID: uuid.New().String(), Name: "carte-blanche", State: "published"}}
		enrollSvc.On("List", mock.Anything).Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/enrollments", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result []service.EnrollmentView
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result, 1)
		assert.Equal(t, "carte-blanche", result[0].Name)
		enrollSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		enrollSvc.On("List", mock.Anything).Return(nil, errors.New("db error")).Once()

		req := httptest.NewRequest(http.MethodGet, "/enrollments", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		enrollSvc.AssertExpectations(t)
	})
}

func TestGetEnrollment(t *testing.T) {
	app, _, enrollSvc, _, _ := newTestApp(t)

	t.Run("success", func(t *testing.T) {
		expected := &service.EnrollmentView{ID: uuid.New().String(), Name: "carte-blanche"}
		enrollSvc.On("Get", mock.Anything, "carte-blanche").Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/enrollments/carte-blanche", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		enrollSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		enrollSvc.On("Get", mock.Anything, "missing").Return(nil, service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/enrollments/missing", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
		enrollSvc.AssertExpectations(t)
	})
}

func TestTriggerEnrollment(t *testing.T) {
	app, _, enrollSvc, _, _ := newTestApp(t)

	t.Run("success", func(t *testing.T) {
		expected := &service.EnrollmentView{Name: "carte-blanche", State: "waiting_for_approval"}
		enrollSvc.On("Trigger", mock.Anything, "carte-blanche", "complete_application", mock.Anything).Return(expected, nil).Once()

		body := strings.NewReader(`{"event":"complete_application"}`)
		req := asApprover(httptest.NewRequest(http.MethodPatch, "/enrollments/carte-blanche/trigger", body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		enrollSvc.AssertExpectations(t)
	})

	t.Run("event required", func(t *testing.T) {
		req := asApprover(httptest.NewRequest(http.MethodPatch, "/enrollments/carte-blanche/trigger", strings.NewReader(`{}`)))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "EVENT_REQUIRED", res.Error.Code)
	})

	t.Run("guard failure", func(t *testing.T) {
		verr := &workflow.ValidationError{Errors: map[string][]string{
			"documents": {"Vous devez envoyer le document : Document::LegalBasis"},
		}}
		enrollSvc.On("Trigger", mock.Anything, "carte-blanche", "complete_application", mock.Anything).Return(nil, verr).Once()

		body := strings.NewReader(`{"event":"complete_application"}`)
		req := asApprover(httptest.NewRequest(http.MethodPatch, "/enrollments/carte-blanche/trigger", body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "VALIDATION_FAILED", res.Error.Code)
		assert.Contains(t, res.Errors, "documents")
		enrollSvc.AssertExpectations(t)
	})
}

func TestBeginSubscription(t *testing.T) {
	app, _, _, subSvc, _ := newTestApp(t)

	t.Run("success", func(t *testing.T) {
		expected := &service.SubscriptionView{ID: uuid.New().String(), State: "initial"}
		subSvc.On("Begin", mock.Anything, "carte-blanche", mock.Anything, map[string]any{"intitule": "Mon projet"}).Return(expected, nil).Once()

		body := strings.NewReader(`{"intitule":"Mon projet"}`)
		req := asApplicant(httptest.NewRequest(http.MethodPost, "/enrollments/carte-blanche/subscriptions", body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		subSvc.AssertExpectations(t)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/enrollments/carte-blanche/subscriptions", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "UNAUTHENTICATED", res.Error.Code)
	})

	t.Run("unknown attribute", func(t *testing.T) {
		uerr := &service.UnknownAttributeError{Name: "nope"}
		subSvc.On("Begin", mock.Anything, "carte-blanche", mock.Anything, mock.Anything).Return(nil, uerr).Once()

		body := strings.NewReader(`{"nope":true}`)
		req := asApplicant(httptest.NewRequest(http.MethodPost, "/enrollments/carte-blanche/subscriptions", body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "UNKNOWN_ATTRIBUTE", res.Error.Code)
		subSvc.AssertExpectations(t)
	})
}

func TestGetSubscription(t *testing.T) {
	app, _, _, subSvc, _ := newTestApp(t)

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		expected := &service.SubscriptionView{ID: id, State: "filled_application", ACL: authz.ACL{"update": true}}
		subSvc.On("Get", mock.Anything, id, mock.Anything).Return(expected, nil).Once()

		req := asApplicant(httptest.NewRequest(http.MethodGet, "/subscriptions/"+id, nil))
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.SubscriptionView
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, id, result.ID)
		assert.True(t, result.ACL["update"])
		subSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := asApplicant(httptest.NewRequest(http.MethodGet, "/subscriptions/not-a-uuid", nil))
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_ID", res.Error.Code)
	})

	t.Run("forbidden", func(t *testing.T) {
		id := uuid.New().String()
		subSvc.On("Get", mock.Anything, id, mock.Anything).Return(nil, service.ErrForbidden).Once()

		req := asApplicant(httptest.NewRequest(http.MethodGet, "/subscriptions/"+id, nil))
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		subSvc.AssertExpectations(t)
	})
}

func TestSetSubscriptionAttributes(t *testing.T) {
	app, _, _, subSvc, _ := newTestApp(t)

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		expected := &service.SubscriptionView{ID: id, Answers: map[string]any{"agreement": true}}
		subSvc.On("SetAttributes", mock.Anything, id, mock.Anything, map[string]any{"agreement": true}).Return(expected, nil).Once()

		body := strings.NewReader(`{"agreement":true}`)
		req := asApplicant(httptest.NewRequest(http.MethodPatch, "/subscriptions/"+id, body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		subSvc.AssertExpectations(t)
	})

	t.Run("invalid body", func(t *testing.T) {
		id := uuid.New().String()
		req := asApplicant(httptest.NewRequest(http.MethodPatch, "/subscriptions/"+id, strings.NewReader("not json")))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_BODY", res.Error.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		body := strings.NewReader(`{"agreement":true}`)
		req := asApplicant(httptest.NewRequest(http.MethodPatch, "/subscriptions/not-a-uuid", body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_ID", res.Error.Code)
		subSvc.AssertNotCalled(t, "SetAttributes", mock.Anything, "not-a-uuid", mock.Anything, mock.Anything)
	})
}

func TestTriggerSubscription(t *testing.T) {
	app, _, _, subSvc, _ := newTestApp(t)

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		expected := &service.SubscriptionView{ID: id, State: "waiting_for_approval"}
		subSvc.On("Trigger", mock.Anything, id, "complete_application", mock.Anything).Return(expected, nil).Once()

		body := strings.NewReader(`{"event":"complete_application"}`)
		req := asApplicant(httptest.NewRequest(http.MethodPatch, "/subscriptions/"+id+"/trigger", body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		subSvc.AssertExpectations(t)
	})

	t.Run("illegal transition", func(t *testing.T) {
		id := uuid.New().String()
		subSvc.On("Trigger", mock.Anything, id, "deploy", mock.Anything).Return(nil, workflow.ErrIllegalTransition).Once()

		body := strings.NewReader(`{"event":"deploy"}`)
		req := asApplicant(httptest.NewRequest(http.MethodPatch, "/subscriptions/"+id+"/trigger", body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "ILLEGAL_TRANSITION", res.Error.Code)
		subSvc.AssertExpectations(t)
	})

	t.Run("unknown event", func(t *testing.T) {
		id := uuid.New().String()
		subSvc.On("Trigger", mock.Anything, id, "explode", mock.Anything).Return(nil, service.ErrEventNotPermitted).Once()

		body := strings.NewReader(`{"event":"explode"}`)
		req := asApplicant(httptest.NewRequest(http.MethodPatch, "/subscriptions/"+id+"/trigger", body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "EVENT_NOT_PERMITTED", res.Error.Code)
		subSvc.AssertExpectations(t)
	})
}

func TestAttachDocument(t *testing.T) {
	app, _, _, subSvc, _ := newTestApp(t)

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		writer.WriteField("type", "Document::LegalBasis")
		part, _ := writer.CreateFormFile("file", "basis.pdf")
		part.Write([]byte("%PDF-1.4"))
		writer.Close()

		expected := &service.SubscriptionView{ID: id, Documents: []service.DocumentView{{Type: "Document::LegalBasis", Filename: "basis.pdf"}}}
		subSvc.On("AttachDocument", mock.Anything, id, mock.Anything, "Document::LegalBasis", "basis.pdf", mock.Anything, mock.Anything, mock.Anything).Return(expected, nil).Once()

		req := asApplicant(httptest.NewRequest(http.MethodPost, "/subscriptions/"+id+"/documents", body))
		req.Header.Set("Content-Type", writer.FormDataContentType())
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		subSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		id := uuid.New().String()
		req := asApplicant(httptest.NewRequest(http.MethodPost, "/subscriptions/"+id+"/documents", nil))
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "FILE_REQUIRED", res.Error.Code)
	})
}

func TestListDocuments(t *testing.T) {
	app, _, _, subSvc, _ := newTestApp(t)

	t.Run("includes archived generations", func(t *testing.T) {
		id := uuid.New().String()
		history := []service.DocumentView{
			{ID: "doc-1", Type: "Document::LegalBasis", Filename: "basis-v1.pdf", Archived: true},
			{ID: "doc-2", Type: "Document::LegalBasis", Filename: "basis-v2.pdf"},
		}
		subSvc.On("Documents", mock.Anything, id, mock.Anything).Return(history, nil).Once()

		req := asApplicant(httptest.NewRequest(http.MethodGet, "/subscriptions/"+id+"/documents", nil))
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result []service.DocumentView
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, history, result)
		subSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := asApplicant(httptest.NewRequest(http.MethodGet, "/subscriptions/not-a-uuid/documents", nil))
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_ID", res.Error.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		id := uuid.New().String()
		req := httptest.NewRequest(http.MethodGet, "/subscriptions/"+id+"/documents", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestWithdrawSubscription(t *testing.T) {
	app, _, _, subSvc, _ := newTestApp(t)

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		subSvc.On("Withdraw", mock.Anything, id, mock.Anything).Return(nil).Once()

		req := asApplicant(httptest.NewRequest(http.MethodDelete, "/subscriptions/"+id, nil))
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		subSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		subSvc.On("Withdraw", mock.Anything, id, mock.Anything).Return(service.ErrNotFound).Once()

		req := asApplicant(httptest.NewRequest(http.MethodDelete, "/subscriptions/"+id, nil))
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		subSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := asApplicant(httptest.NewRequest(http.MethodDelete, "/subscriptions/not-a-uuid", nil))
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_ID", res.Error.Code)
		subSvc.AssertNotCalled(t, "Withdraw", mock.Anything, "not-a-uuid", mock.Anything)
	})
}

func TestMessages(t *testing.T) {
	app, _, _, _, msgSvc := newTestApp(t)

	t.Run("list", func(t *testing.T) {
		id := uuid.New().String()
		expected := []service.MessageView{{ID: uuid.New().String(), Content: "votre dossier a été complèté"}}
		msgSvc.On("List", mock.Anything, id, mock.Anything).Return(expected, nil).Once()

		req := asApplicant(httptest.NewRequest(http.MethodGet, "/subscriptions/"+id+"/messages", nil))
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result []service.MessageView
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result, 1)
		msgSvc.AssertExpectations(t)
	})

	t.Run("create", func(t *testing.T) {
		id := uuid.New().String()
		expected := &service.MessageView{ID: uuid.New().String(), Content: "bonjour", Sender: "actor-1"}
		msgSvc.On("Create", mock.Anything, id, "bonjour", mock.Anything).Return(expected, nil).Once()

		body := strings.NewReader(`{"content":"bonjour"}`)
		req := asApplicant(httptest.NewRequest(http.MethodPost, "/subscriptions/"+id+"/messages", body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		msgSvc.AssertExpectations(t)
	})

	t.Run("create empty content", func(t *testing.T) {
		id := uuid.New().String()
		msgSvc.On("Create", mock.Anything, id, "", mock.Anything).Return(nil, service.ErrContentRequired).Once()

		body := strings.NewReader(`{"content":""}`)
		req := asApplicant(httptest.NewRequest(http.MethodPost, "/subscriptions/"+id+"/messages", body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		msgSvc.AssertExpectations(t)
	})

	t.Run("delete not sender", func(t *testing.T) {
		id := uuid.New().String()
		msgSvc.On("Delete", mock.Anything, id, mock.Anything).Return(service.ErrForbidden).Once()

		req := asApplicant(httptest.NewRequest(http.MethodDelete, "/messages/"+id, nil))
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		msgSvc.AssertExpectations(t)
	})

	t.Run("delete invalid id", func(t *testing.T) {
		req := asApplicant(httptest.NewRequest(http.MethodDelete, "/messages/not-a-uuid", nil))
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_ID", res.Error.Code)
		msgSvc.AssertNotCalled(t, "Delete", mock.Anything, "not-a-uuid", mock.Anything)
	})
}

func TestRouting(t *testing.T) {
	app, _, _, _, _ := newTestApp(t)

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		// Health endpoint only allows GET
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "METHOD_NOT_ALLOWED", res.Error.Code)
	})
}
