package userlist

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func TestUserListHandlersList(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT ul\.user_list_id, u\.username`).
		WillReturnRows(pgxmock.NewRows([]string{"user_list_id", "username", "trail_name", "name", "visibility"}).
			AddRow(int64(7), "Grace", nil, "Wish List", "private"))

	app := fiber.New()
	RegisterRoutes(app.Group("/userlists"), newService(mock))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/userlists/", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list status: %v %d", err, resp.StatusCode)
	}
}

func TestUserListHandlersGetNotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT ul\.user_list_id, u\.username`).
		WithArgs(int64(99)).
		WillReturnRows(pgxmock.NewRows([]string{"user_list_id", "username", "trail_name", "name", "visibility"}))

	app := fiber.New()
	RegisterRoutes(app.Group("/userlists"), newService(mock))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/userlists/99", nil))
	if err != nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %v %d", err, resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/userlists/abc", nil))
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %v %d", err, resp.StatusCode)
	}
}

func TestUserListHandlersCreateValidation(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/userlists"), newService(nil))

	req := httptest.NewRequest(http.MethodPost, "/userlists/", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v %d", err, resp.StatusCode)
	}
}

func TestUserListHandlersUpdateRejectsUnknownFields(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/userlists"), newService(nil))

	req := httptest.NewRequest(http.MethodPut, "/userlists/7", bytes.NewReader([]byte(`{"visability": "public"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %v %d", err, resp.StatusCode)
	}
}

func TestUserListHandlersDelete(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM user_lists`).
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	app := fiber.New()
	RegisterRoutes(app.Group("/userlists"), newService(mock))

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/userlists/7", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %v %d", err, resp.StatusCode)
	}
}
