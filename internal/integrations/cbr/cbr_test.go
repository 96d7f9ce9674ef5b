package cbr

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/cashflow-service/internal/config"
)

const keyRateResponse = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
  <soap:Body>
    <KeyRateResponse xmlns="http://web.cbr.ru/">
      <KeyRateResult>
        <diffgr:diffgram xmlns:diffgr="urn:schemas-microsoft-com:xml-diffgram-v1">
          <KeyRate xmlns="">
            <KR><DT>2026-10-17T00:00:00+03:00</DT><Rate>16.50</Rate></KR>
            <KR><DT>2026-10-16T00:00:00+03:00</DT><Rate>17.00</Rate></KR>
          </KeyRate>
        </diffgr:diffgram>
      </KeyRateResult>
    </KeyRateResponse>
  </soap:Body>
</soap:Envelope>`

func newTestClient(url string) *CBRClient {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	c := NewCBRClient(&config.Config{CBRURL: url}, logger)
	c.now = func() time.Time { return time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC) }
	return c
}

func TestGetKeyRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "<fromDate>2026-09-18</fromDate>") {
			t.Errorf("unexpected request body %s", body)
		}
		if r.Header.Get("SOAPAction") != "http://web.cbr.ru/KeyRate" {
			t.Errorf("missing SOAPAction header")
		}
		w.Write([]byte(keyRateResponse))
	}))
	defer server.Close()

	rate, err := newTestClient(server.URL).GetKeyRate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate != 16.5 {
		t.Errorf("expected 16.5, got %v", rate)
	}
}

func TestGetKeyRate_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).GetKeyRate(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseXMLResponse_Errors(t *testing.T) {
	c := newTestClient("")

	cases := map[string]string{
		"malformed": "<soap:Envelope",
		"empty":     `<Envelope><Body></Body></Envelope>`,
		"no rate":   `<diffgram><KeyRate><KR><DT>x</DT></KR></KeyRate></diffgram>`,
		"bad rate":  `<diffgram><KeyRate><KR><Rate>n/a</Rate></KR></KeyRate></diffgram>`,
	}
	for name, body := range cases {
		if _, err := c.parseXMLResponse([]byte(body)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestParseXMLResponse_DecimalComma(t *testing.T) {
	c := newTestClient("")

	rate, err := c.parseXMLResponse([]byte(`<diffgram><KeyRate><KR><Rate>7,25</Rate></KR></KeyRate></diffgram>`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate != 7.25 {
		t.Errorf("expected 7.25, got %v", rate)
	}
}
