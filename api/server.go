// Package api serves fare predictions over HTTP.
package api

import (
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/hscells/taxifare/data"
	"github.com/hscells/taxifare/encoders"
	"github.com/hscells/taxifare/frame"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// DefaultModelPath is the artifact served when no other is configured.
const DefaultModelPath = "models/final/model.gob"

// Greeting is the body of the index route.
const Greeting = "Hello world"

// Error is the body of every failed request. Field names the query parameter at fault, if any.
type Error struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// Prediction is the body of a successful prediction.
type Prediction struct {
	Prediction float64 `json:"prediction"`
}

// New creates the server for the artifact at modelPath.
func New(modelPath string, models *Models) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if s, ok := he.Message.(string); ok {
				msg = s
			}
		}
		if code >= 500 {
			log.Printf("[error] %s %s: %v\n", c.Request().Method, c.Request().URL, err)
		}
		_ = c.JSON(code, Error{Error: msg})
	}

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowHeaders: []string{"*"},
	}))

	e.GET("/", Index())
	predict := PredictFare(modelPath, models)
	e.GET("/predict_fare", predict)
	e.GET("/predict_fare/", predict)
	return e
}

// Index greets the caller.
func Index() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"greeting": Greeting})
	}
}

type badRequest struct {
	field string
	msg   string
}

func (b badRequest) respond(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, Error{Error: b.msg, Field: b.field})
}

// trip reads the single trip described by the query parameters of a request.
func trip(c echo.Context) (*frame.Frame, *badRequest) {
	required := func(name string) (string, *badRequest) {
		v := strings.TrimSpace(c.QueryParam(name))
		if len(v) == 0 {
			return "", &badRequest{field: name, msg: "missing parameter " + name}
		}
		return v, nil
	}

	ts, bad := required(data.PickupDatetime)
	if bad != nil {
		return nil, bad
	}
	if _, err := encoders.ParseTimestamp(ts); err != nil {
		return nil, &badRequest{field: data.PickupDatetime, msg: err.Error()}
	}

	columns := []frame.Column{
		frame.StringColumn(data.Key, []string{c.QueryParam(data.Key)}),
		frame.StringColumn(data.PickupDatetime, []string{ts}),
	}
	for _, name := range []string{data.PickupLongitude, data.PickupLatitude, data.DropoffLongitude, data.DropoffLatitude} {
		s, bad := required(name)
		if bad != nil {
			return nil, bad
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &badRequest{field: name, msg: name + " must be a number, got " + strconv.Quote(s)}
		}
		columns = append(columns, frame.FloatColumn(name, []float64{v}))
	}

	s, bad := required(data.PassengerCount)
	if bad != nil {
		return nil, bad
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil, &badRequest{field: data.PassengerCount, msg: data.PassengerCount + " must be a non-negative integer, got " + strconv.Quote(s)}
	}
	columns = append(columns, frame.FloatColumn(data.PassengerCount, []float64{float64(n)}))

	f, err := frame.New(columns...)
	if err != nil {
		return nil, &badRequest{msg: err.Error()}
	}
	return f, nil
}

// PredictFare predicts the fare of the trip given in the query with the artifact at modelPath.
func PredictFare(modelPath string, models *Models) echo.HandlerFunc {
	return func(c echo.Context) error {
		X, bad := trip(c)
		if bad != nil {
			return bad.respond(c)
		}

		p, err := models.Get(modelPath)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "model unavailable: "+err.Error()).SetInternal(err)
		}
		pred, err := p.Predict(X)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "prediction failed: "+err.Error()).SetInternal(err)
		}
		if len(pred) != 1 || math.IsNaN(pred[0]) || math.IsInf(pred[0], 0) {
			return echo.NewHTTPError(http.StatusInternalServerError, "model did not produce a finite prediction")
		}
		return c.JSON(http.StatusOK, Prediction{Prediction: pred[0]})
	}
}
