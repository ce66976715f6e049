package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jmehdipour/ratebook/internal/model"
	"github.com/jmehdipour/ratebook/internal/output"
	"github.com/jmehdipour/ratebook/internal/repository"
	"github.com/jmehdipour/ratebook/internal/service/book"
	echo "github.com/labstack/echo/v4"
)

func listCustomersHandler(svc *book.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		customers, err := svc.Customers(c.Request().Context())
		if err != nil {
			c.Logger().Errorf("list customers failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}
		return c.JSON(http.StatusOK, map[string]any{
			"count":   len(customers),
			"results": output.CustomerNames(customers).Value(),
		})
	}
}

func customerRatesHandler(svc *book.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := model.NormalizeName(c.Param("name"))
		if name == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "customer name is required"})
		}
		cu, err := svc.Customer(c.Request().Context(), name)
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "customer not found"})
		}
		if err != nil {
			c.Logger().Errorf("customer rates failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}
		return c.JSON(http.StatusOK, output.CustomerRates{Name: cu.Name, Rates: nonNil(cu.Records())})
	}
}

func listTariffsHandler(svc *book.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		ts, err := svc.Tariffs(c.Request().Context())
		if err != nil {
			c.Logger().Errorf("list tariffs failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}
		recs := model.TariffRecords(ts)
		if dp := strings.TrimSpace(c.QueryParam("destination_port")); dp != "" {
			dp = model.NormalizeCode(dp)
			filtered := recs[:0]
			for _, r := range recs {
				if r.DestinationPort == dp {
					filtered = append(filtered, r)
				}
			}
			recs = filtered
		}
		return c.JSON(http.StatusOK, map[string]any{
			"count":   len(recs),
			"results": nonNil(recs),
		})
	}
}

func quoteHandler(svc *book.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := model.Key{
			LoadPort:        c.QueryParam("load_port"),
			DestinationPort: c.QueryParam("destination_port"),
			ContainerType:   c.QueryParam("container_type"),
		}.Normalize()
		if key.LoadPort == "" || key.DestinationPort == "" || key.ContainerType == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "load_port, destination_port and container_type are required"})
		}

		q, err := svc.Quote(c.Request().Context(), c.QueryParam("customer"), key)
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "no rate or tariff for lane"})
		}
		if err != nil {
			c.Logger().Errorf("quote failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}
		return c.JSON(http.StatusOK, q)
	}
}

func nonNil(recs []model.Record) []model.Record {
	if recs == nil {
		return []model.Record{}
	}
	return recs
}
