package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shopsheet-sync/internal/domain"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
)

const apiVersion = "2024-10"

// productsQuery pages through the catalog via the Admin GraphQL API.
// Only the first variant's price is read; the sheet carries one
// representative price per product.
const productsQuery = `query GetProducts($cursor: String, $pageSize: Int!) {
  products(first: $pageSize, after: $cursor) {
    edges {
      node {
        id
        title
        description
        variants(first: 1) {
          edges {
            node {
              price
            }
          }
        }
      }
    }
    pageInfo {
      hasNextPage
      endCursor
    }
  }
}`

// Client is the Shopify adapter. It implements both the CatalogSource
// and ShopifyOAuth ports.
type Client struct {
	apiKey      string
	apiSecret   string
	redirectURI string
	scopes      []string
	app         goshopify.App
	httpClient  *http.Client
	logger      zerolog.Logger
}

// NewClient creates a new Shopify client adapter
func NewClient(apiKey, apiSecret, redirectURI string, logger zerolog.Logger) *Client {
	app := goshopify.App{
		ApiKey:    apiKey,
		ApiSecret: apiSecret,
	}
	return &Client{
		apiKey:      apiKey,
		apiSecret:   apiSecret,
		redirectURI: redirectURI,
		scopes:      []string{"read_products"},
		app:         app,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
	}
}

// AuthURL builds the install/authorization URL for a shop.
// Shopify expects scopes to be comma-separated (no spaces).
func (c *Client) AuthURL(shopDomain, state string) string {
	scopesStr := strings.Join(c.scopes, ",")
	return fmt.Sprintf(
		"https://%s/admin/oauth/authorize?client_id=%s&scope=%s&redirect_uri=%s&state=%s",
		shopDomain,
		c.apiKey,
		url.QueryEscape(scopesStr),
		url.QueryEscape(c.redirectURI),
		url.QueryEscape(state),
	)
}

// Exchange trades an authorization code for an offline access token
func (c *Client) Exchange(ctx context.Context, shopDomain, code string) (string, error) {
	token, err := c.app.GetAccessToken(ctx, shopDomain, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange token: %w", err)
	}
	return token, nil
}

// VerifyToken checks that a stored token is still accepted by the shop's
// admin API, using the shop endpoint as the lightest available call.
func (c *Client) VerifyToken(ctx context.Context, shopDomain, accessToken string) error {
	client, err := goshopify.NewClient(c.app, shopDomain, accessToken)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	if _, err := client.Shop.Get(ctx, nil); err != nil {
		return fmt.Errorf("failed to verify token: %w", err)
	}
	return nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type productsResponse struct {
	Data struct {
		Products struct {
			Edges []struct {
				Node struct {
					ID          string `json:"id"`
					Title       string `json:"title"`
					Description string `json:"description"`
					Variants    struct {
						Edges []struct {
							Node struct {
								Price string `json:"price"`
							} `json:"node"`
						} `json:"edges"`
					} `json:"variants"`
				} `json:"node"`
			} `json:"edges"`
			PageInfo struct {
				HasNextPage bool   `json:"hasNextPage"`
				EndCursor   string `json:"endCursor"`
			} `json:"pageInfo"`
		} `json:"products"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Page fetches one page of products after cursor. Cursor pagination is
// only available on the Admin GraphQL API, so this posts to the GraphQL
// endpoint directly.
func (c *Client) Page(ctx context.Context, shopDomain, accessToken, cursor string, pageSize int) (*domain.CatalogPage, error) {
	variables := map[string]any{"pageSize": pageSize}
	if cursor != "" {
		variables["cursor"] = cursor
	}

	body, err := json.Marshal(graphQLRequest{Query: productsQuery, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("failed to encode products query: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s/admin/api/%s/graphql.json", shopDomain, apiVersion)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create products request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to fetch products page: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var decoded productsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode products response: %w", err)
	}
	if len(decoded.Errors) > 0 {
		return nil, fmt.Errorf("products query failed: %s", decoded.Errors[0].Message)
	}

	products := decoded.Data.Products
	page := &domain.CatalogPage{
		Items:       make([]domain.Product, 0, len(products.Edges)),
		HasNextPage: products.PageInfo.HasNextPage,
		EndCursor:   products.PageInfo.EndCursor,
	}
	for _, edge := range products.Edges {
		price := "0.00"
		if len(edge.Node.Variants.Edges) > 0 {
			price = edge.Node.Variants.Edges[0].Node.Price
		}
		page.Items = append(page.Items, domain.Product{
			ID:          edge.Node.ID,
			Title:       edge.Node.Title,
			Description: edge.Node.Description,
			Price:       price,
		})
	}

	c.logger.Debug().
		Str("shop", shopDomain).
		Int("items", len(page.Items)).
		Bool("hasNextPage", page.HasNextPage).
		Msg("Fetched products page")

	return page, nil
}
