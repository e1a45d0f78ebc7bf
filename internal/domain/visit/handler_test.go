package visit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *Service) {
	svc := newTestService()
	return NewHandler(svc), svc
}

func doJSON(h echo.HandlerFunc, method, path, body string, params map[string]string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if len(params) > 0 {
		names := make([]string, 0, len(params))
		values := make([]string, 0, len(params))
		for k, v := range params {
			names = append(names, k)
			values = append(values, v)
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	return rec, h(c)
}

func TestHandler_Register(t *testing.T) {
	h, _ := newTestHandler()

	body := `{"name":"Jane Roe","age":30,"gender":"female","phone":"555-0101","department":"cardiology"}`
	rec, err := doJSON(h.Register, http.MethodPost, "/api/v1/registrations", body, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var v Visit
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if v.Token != "CARD-001" || v.Status != StatusRegistered {
		t.Errorf("unexpected visit: token=%s status=%s", v.Token, v.Status)
	}
}

func TestHandler_Register_UnknownDepartment(t *testing.T) {
	h, _ := newTestHandler()

	body := `{"name":"Jane Roe","phone":"555-0101","department":"radiology"}`
	_, err := doJSON(h.Register, http.MethodPost, "/api/v1/registrations", body, nil)

	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", err)
	}
}

func TestHandler_GetVisit(t *testing.T) {
	h, svc := newTestHandler()
	v := register(t, svc, Dental)

	rec, err := doJSON(h.GetVisit, http.MethodGet, "/api/v1/visits/"+v.ID.String(), "", map[string]string{"id": v.ID.String()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_GetVisit_BadID(t *testing.T) {
	h, _ := newTestHandler()

	_, err := doJSON(h.GetVisit, http.MethodGet, "/api/v1/visits/nope", "", map[string]string{"id": "nope"})
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_GetVisit_NotFound(t *testing.T) {
	h, _ := newTestHandler()

	id := "0b8f9d9e-4f1a-4f6e-9f1d-000000000000"
	_, err := doJSON(h.GetVisit, http.MethodGet, "/api/v1/visits/"+id, "", map[string]string{"id": id})
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestHandler_RecordVitals_Conflict(t *testing.T) {
	h, svc := newTestHandler()
	v := register(t, svc, ENT)
	toConsultant(t, svc, v, nil)

	body := `{"blood_pressure":"120/80","heart_rate":72}`
	_, err := doJSON(h.RecordVitals, http.MethodPut, "/api/v1/visits/"+v.ID.String()+"/vitals", body, map[string]string{"id": v.ID.String()})
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", err)
	}
}

func TestHandler_AdvanceLabOrder(t *testing.T) {
	h, svc := newTestHandler()
	v := register(t, svc, Cardiology)
	out := toConsultant(t, svc, v, []LabOrderInput{{TestName: "ECG", Cost: 100}})
	orderID := out.LabOrders[0].ID.String()

	rec, err := doJSON(h.AdvanceLabOrder, http.MethodPatch,
		"/api/v1/visits/"+v.ID.String()+"/lab-orders/"+orderID,
		`{"status":"sample-collected"}`,
		map[string]string{"id": v.ID.String(), "orderID": orderID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	_, err = doJSON(h.AdvanceLabOrder, http.MethodPatch,
		"/api/v1/visits/"+v.ID.String()+"/lab-orders/"+orderID,
		`{"status":"completed"}`,
		map[string]string{"id": v.ID.String(), "orderID": orderID})
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusConflict {
		t.Fatalf("expected 409 for a skipped step, got %v", err)
	}
}

func TestHandler_Queue(t *testing.T) {
	h, svc := newTestHandler()
	register(t, svc, GeneralMedicine)
	register(t, svc, GeneralMedicine)

	rec, err := doJSON(h.Queue, http.MethodGet, "/api/v1/queues/nurse", "", map[string]string{"role": "nurse"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp struct {
		Data  []Visit `json:"data"`
		Total int     `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Total != 2 || len(resp.Data) != 2 {
		t.Errorf("expected 2 visits in the nurse queue, got total=%d len=%d", resp.Total, len(resp.Data))
	}
}

func TestHandler_Queue_UnknownRole(t *testing.T) {
	h, _ := newTestHandler()

	_, err := doJSON(h.Queue, http.MethodGet, "/api/v1/queues/janitor", "", map[string]string{"role": "janitor"})
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", err)
	}
}

func TestHandler_Departments(t *testing.T) {
	h, _ := newTestHandler()

	rec, err := doJSON(h.Departments, http.MethodGet, "/api/v1/departments", "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var configs []DepartmentConfig
	if err := json.Unmarshal(rec.Body.Bytes(), &configs); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(configs) != 6 {
		t.Errorf("expected 6 departments, got %d", len(configs))
	}
}

func TestHandler_Insights_Placeholder(t *testing.T) {
	h, svc := newTestHandler()
	v := register(t, svc, GeneralMedicine)

	rec, err := doJSON(h.Insights, http.MethodGet, "/api/v1/visits/"+v.ID.String()+"/insights", "", map[string]string{"id": v.ID.String()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Unable to generate insights.") {
		t.Errorf("expected placeholder body, got %s", rec.Body.String())
	}
}
