package callflow_test

import (
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/aretw0/callflow"
	"github.com/aretw0/callflow/internal/demo"
)

// ExampleNew compiles a flow and lists the endpoints it exposes.
func ExampleNew() {
	app, err := callflow.New(demo.New(demo.Options{}), nil)
	if err != nil {
		log.Fatal(err)
	}

	for _, b := range app.Routes() {
		fmt.Println(b.Method, b.Path, b.StateName, b.Kind)
	}

	// Output:
	// POST /voice welcome direct
	// POST /menu/next menu transition
	// POST /hours hours direct
	// POST /transfer transfer direct
	// POST /goodbye goodbye direct
}

// ExampleApp_Handler drives one call through the menu the way a carrier would.
func ExampleApp_Handler() {
	app, err := callflow.New(demo.New(demo.Options{}), nil)
	if err != nil {
		log.Fatal(err)
	}
	h := app.Handler()

	post := func(path string, form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	// The call is answered, then the caller presses 9
	answered := post("/voice", url.Values{"CallSid": {"CA123"}})
	fmt.Println(answered.Code, strings.Contains(answered.Body.String(), "<Gather"))

	hungUp := post("/menu/next", url.Values{"CallSid": {"CA123"}, "Digits": {"9"}})
	fmt.Println(hungUp.Code, strings.Contains(hungUp.Body.String(), "<Hangup"))

	// Output:
	// 200 true
	// 200 true
}
