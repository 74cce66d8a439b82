package wildberries

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"catalog-sync-service/internal/clients"
	"catalog-sync-service/internal/models"
	"catalog-sync-service/internal/syncerr"
)

const (
	defaultBaseURL = "https://suppliers-api.wildberries.ru"
	requestTimeout = 30 * time.Second
)

// Client implements clients.MarketplaceClient for Wildberries
type Client struct {
	http        *resty.Client
	token       string
	rateLimiter *rate.Limiter
}

// NewClient creates a new Wildberries content API client
func NewClient() *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(defaultBaseURL).
			SetTimeout(requestTimeout).
			SetHeader("Content-Type", "application/json"),
		rateLimiter: rate.NewLimiter(rate.Limit(5), 1), // 5 requests per second
	}
}

// GetType returns the marketplace type
func (c *Client) GetType() models.MarketplaceType {
	return models.MarketplaceWildberries
}

// Initialize sets up the client with credentials
func (c *Client) Initialize(ctx context.Context, credentials map[string]interface{}) error {
	token, ok := credentials["api_token"].(string)
	if !ok || token == "" {
		return &syncerr.CredentialError{Reason: "missing api_token"}
	}
	c.token = token
	c.http.SetHeader("Authorization", token)

	if baseURL, ok := credentials["base_url"].(string); ok && baseURL != "" {
		c.http.SetBaseURL(baseURL)
	}
	return nil
}

// TestConnection verifies the connection is working
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.do(ctx, "ping", func(r *resty.Request) (*resty.Response, error) {
		return r.Get("/ping")
	})
	return err
}

// FetchCategoryCharacteristics returns the characteristic rules for a
// marketplace category
func (c *Client) FetchCategoryCharacteristics(ctx context.Context, categoryExternalID string) ([]clients.AttributeRule, error) {
	var out struct {
		Data []struct {
			CharcID    int    `json:"charcID"`
			Name       string `json:"name"`
			Required   bool   `json:"required"`
			UnitName   string `json:"unitName"`
			MaxCount   int    `json:"maxCount"`
			Dictionary string `json:"dictionary"`
			Popular    bool   `json:"popular"`
			SizeLevel  bool   `json:"sizeLevel"`
		} `json:"data"`
		Error     bool   `json:"error"`
		ErrorText string `json:"errorText"`
	}

	_, err := c.do(ctx, "fetch category characteristics", func(r *resty.Request) (*resty.Response, error) {
		return r.SetResult(&out).Get("/content/v2/object/charcs/" + categoryExternalID)
	})
	if err != nil {
		return nil, err
	}
	if out.Error {
		return nil, &syncerr.RemoteError{Op: "fetch category characteristics", Detail: out.ErrorText}
	}

	rules := make([]clients.AttributeRule, 0, len(out.Data))
	for _, d := range out.Data {
		rules = append(rules, clients.AttributeRule{
			ExternalID:   strconv.Itoa(d.CharcID),
			Name:         d.Name,
			Required:     d.Required,
			IsDictionary: d.Dictionary != "",
			IsCollection: d.MaxCount != 1,
			MaxCount:     d.MaxCount,
			UnitName:     d.UnitName,
			IsSizeLevel:  d.SizeLevel,
		})
	}
	return rules, nil
}

// FetchDictionaryValues pulls up to limit values of a marketplace dictionary,
// optionally filtered by a search pattern
func (c *Client) FetchDictionaryValues(ctx context.Context, dictionaryID, pattern string, limit int) ([]clients.DictionaryValue, error) {
	var out struct {
		Data []struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
		Error     bool   `json:"error"`
		ErrorText string `json:"errorText"`
	}

	_, err := c.do(ctx, "fetch dictionary values", func(r *resty.Request) (*resty.Response, error) {
		req := r.SetResult(&out).SetQueryParam("limit", strconv.Itoa(limit))
		if pattern != "" {
			req = req.SetQueryParam("pattern", pattern)
		}
		return req.Get("/content/v2/directory/" + dictionaryID)
	})
	if err != nil {
		return nil, err
	}
	if out.Error {
		return nil, &syncerr.RemoteError{Op: "fetch dictionary values", Detail: out.ErrorText}
	}

	values := make([]clients.DictionaryValue, 0, len(out.Data))
	for _, d := range out.Data {
		values = append(values, clients.DictionaryValue{
			ExternalID: strconv.Itoa(d.ID),
			Name:       d.Name,
		})
	}
	return values, nil
}

// CreateCatalogEntries uploads new cards
func (c *Client) CreateCatalogEntries(ctx context.Context, payload []clients.CatalogEntry) ([]clients.EntryResult, error) {
	return c.uploadEntries(ctx, "/content/v2/cards/upload", "create catalog entries", payload)
}

// UpdateCatalogEntries updates existing cards
func (c *Client) UpdateCatalogEntries(ctx context.Context, payload []clients.CatalogEntry) ([]clients.EntryResult, error) {
	return c.uploadEntries(ctx, "/content/v2/cards/update", "update catalog entries", payload)
}

func (c *Client) uploadEntries(ctx context.Context, path, op string, payload []clients.CatalogEntry) ([]clients.EntryResult, error) {
	var out struct {
		Data []struct {
			VendorCode string `json:"vendorCode"`
			NmID       int64  `json:"nmID"`
			Errors     []string `json:"errors"`
		} `json:"data"`
		Error     bool   `json:"error"`
		ErrorText string `json:"errorText"`
	}

	_, err := c.do(ctx, op, func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(payload).SetResult(&out).Post(path)
	})
	if err != nil {
		return nil, err
	}
	if out.Error {
		return nil, &syncerr.RemoteError{Op: op, Detail: out.ErrorText}
	}

	results := make([]clients.EntryResult, 0, len(out.Data))
	for _, d := range out.Data {
		res := clients.EntryResult{
			VendorCode: d.VendorCode,
			Success:    len(d.Errors) == 0,
		}
		if d.NmID != 0 {
			res.ExternalID = strconv.FormatInt(d.NmID, 10)
		}
		if len(d.Errors) > 0 {
			res.Detail = d.Errors[0]
		}
		results = append(results, res)
	}
	return results, nil
}

// ListCatalogEntries walks the card list with a cursor
func (c *Client) ListCatalogEntries(ctx context.Context, cursor string, limit int) (*clients.CatalogPage, error) {
	body := map[string]interface{}{
		"settings": map[string]interface{}{
			"cursor": map[string]interface{}{"limit": limit, "updatedAt": cursor},
		},
	}

	var out struct {
		Cards []struct {
			NmID            int64  `json:"nmID"`
			VendorCode      string `json:"vendorCode"`
			SubjectID       int    `json:"subjectID"`
			Title           string `json:"title"`
			Description     string `json:"description"`
			Brand           string `json:"brand"`
			Characteristics []struct {
				ID    int         `json:"id"`
				Name  string      `json:"name"`
				Value interface{} `json:"value"`
			} `json:"characteristics"`
			Sizes []struct {
				ChrtID   int64    `json:"chrtID"`
				TechSize string   `json:"techSize"`
				Price    int      `json:"price"`
				Skus     []string `json:"skus"`
			} `json:"sizes"`
			Photos []struct {
				Big string `json:"big"`
			} `json:"photos"`
			UpdatedAt time.Time `json:"updatedAt"`
		} `json:"cards"`
		Cursor struct {
			UpdatedAt string `json:"updatedAt"`
			Total     int    `json:"total"`
		} `json:"cursor"`
	}

	_, err := c.do(ctx, "list catalog entries", func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(body).SetResult(&out).Post("/content/v2/get/cards/list")
	})
	if err != nil {
		return nil, err
	}

	page := &clients.CatalogPage{
		NextCursor: out.Cursor.UpdatedAt,
		HasMore:    out.Cursor.Total >= limit && len(out.Cards) > 0,
	}
	for _, card := range out.Cards {
		rec := clients.CardRecord{
			ExternalID:         strconv.FormatInt(card.NmID, 10),
			VendorCode:         card.VendorCode,
			CategoryExternalID: strconv.Itoa(card.SubjectID),
			Title:              card.Title,
			Description:        card.Description,
			Brand:              card.Brand,
			UpdatedAt:          card.UpdatedAt,
		}
		for _, ch := range card.Characteristics {
			rec.Characteristics = append(rec.Characteristics, clients.CharacteristicValue{
				ExternalID: strconv.Itoa(ch.ID),
				Name:       ch.Name,
				Value:      ch.Value,
			})
		}
		for _, sz := range card.Sizes {
			rec.Sizes = append(rec.Sizes, clients.CardSize{
				ExternalID: strconv.FormatInt(sz.ChrtID, 10),
				TechSize:   sz.TechSize,
				Price:      strconv.Itoa(sz.Price),
				Barcodes:   sz.Skus,
			})
		}
		for _, p := range card.Photos {
			rec.MediaURLs = append(rec.MediaURLs, p.Big)
		}
		page.Records = append(page.Records, rec)
	}
	return page, nil
}

// UpdatePrices pushes price updates
func (c *Client) UpdatePrices(ctx context.Context, records []clients.PriceRecord) error {
	type priceItem struct {
		NmID  int64 `json:"nmID"`
		Price int   `json:"price"`
	}
	items := make([]priceItem, 0, len(records))
	for _, rec := range records {
		nmID, err := strconv.ParseInt(rec.ExternalID, 10, 64)
		if err != nil {
			continue
		}
		price, _ := strconv.Atoi(rec.Price)
		items = append(items, priceItem{NmID: nmID, Price: price})
	}
	if len(items) == 0 {
		return nil
	}

	_, err := c.do(ctx, "update prices", func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(map[string]interface{}{"data": items}).Post("/api/v2/upload/task")
	})
	return err
}

// UpdateStocks pushes stock updates for a warehouse
func (c *Client) UpdateStocks(ctx context.Context, warehouseID string, records []clients.StockRecord) error {
	type stockItem struct {
		Sku    string `json:"sku"`
		Amount int    `json:"amount"`
	}
	items := make([]stockItem, 0, len(records))
	for _, rec := range records {
		items = append(items, stockItem{Sku: rec.Barcode, Amount: rec.Amount})
	}
	if len(items) == 0 {
		return nil
	}

	_, err := c.do(ctx, "update stocks", func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(map[string]interface{}{"stocks": items}).Put("/api/v3/stocks/" + warehouseID)
	})
	return err
}

// FetchOrders walks new orders since dateFrom
func (c *Client) FetchOrders(ctx context.Context, dateFrom time.Time, cursor string) (*clients.OrdersPage, error) {
	var out struct {
		Next   int64 `json:"next"`
		Orders []struct {
			ID        int64     `json:"id"`
			Skus      []string  `json:"skus"`
			Article   string    `json:"article"`
			CreatedAt time.Time `json:"createdAt"`
		} `json:"orders"`
	}

	_, err := c.do(ctx, "fetch orders", func(r *resty.Request) (*resty.Response, error) {
		req := r.SetResult(&out).
			SetQueryParam("dateFrom", strconv.FormatInt(dateFrom.Unix(), 10)).
			SetQueryParam("limit", "1000")
		if cursor != "" {
			req = req.SetQueryParam("next", cursor)
		}
		return req.Get("/api/v3/orders/new")
	})
	if err != nil {
		return nil, err
	}

	page := &clients.OrdersPage{HasMore: out.Next != 0}
	if out.Next != 0 {
		page.NextCursor = strconv.FormatInt(out.Next, 10)
	}
	for _, o := range out.Orders {
		order := clients.ExternalOrder{
			ExternalID: strconv.FormatInt(o.ID, 10),
			VendorCode: o.Article,
			CreatedAt:  o.CreatedAt,
		}
		if len(o.Skus) > 0 {
			order.Barcode = o.Skus[0]
		}
		page.Orders = append(page.Orders, order)
	}
	return page, nil
}

// do throttles and executes one request, translating transport and HTTP
// failures into the shared error taxonomy. No retry happens here.
func (c *Client) do(ctx context.Context, op string, fn func(r *resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	if c.token == "" {
		return nil, &syncerr.CredentialError{Reason: "client not initialized"}
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := fn(c.http.R().SetContext(ctx))
	if err != nil {
		return nil, &syncerr.RemoteError{Op: op, Detail: err.Error()}
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return resp, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, &syncerr.CredentialError{Reason: fmt.Sprintf("%s rejected with status %d", op, resp.StatusCode())}
	default:
		return nil, &syncerr.RemoteError{Op: op, StatusCode: resp.StatusCode(), Detail: string(resp.Body())}
	}
}
