// Package tools exposes the two pipeline steps as MCP tools so an external
// agent runtime can drive them directly.
package tools

import (
	"context"
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ernaz100/redmerce/internal/model"
	"github.com/ernaz100/redmerce/internal/service"
)

// Version is the MCP server version.
const Version = "1.0.0"

// ErrMissingTools is returned when a pipeline step is not provided.
var ErrMissingTools = errors.New("mcp: product finder and detail finder are required")

// FindProductsInput is the input of find_products.
type FindProductsInput struct {
	SearchQuery string `json:"search_query" jsonschema:"the search query to find products, e.g. best wireless headphones or gaming laptop under 1000 euros"`
}

// FindProductsOutput is the output of find_products.
type FindProductsOutput struct {
	Products []model.ProductCandidate `json:"products"`
	Error    string                   `json:"error,omitempty"`
}

// ProductDetailsInput is the input of get_product_details.
type ProductDetailsInput struct {
	ProductName string `json:"product_name" jsonschema:"the exact product name to look up, e.g. Sony WH-1000XM5"`
}

// ProductDetailsOutput is the output of get_product_details.
type ProductDetailsOutput struct {
	Details []model.ProductDetail `json:"details"`
}

// Server is the MCP server for the shopping pipeline.
type Server struct {
	finder  service.ProductFinder
	details service.DetailFinder
	server  *mcp.Server
}

// NewServer registers find_products and get_product_details.
func NewServer(finder service.ProductFinder, details service.DetailFinder) (*Server, error) {
	if finder == nil || details == nil {
		return nil, ErrMissingTools
	}

	s := &Server{
		finder:  finder,
		details: details,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "redmerce",
			Version: Version,
		}, nil),
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_products",
		Description: "Step 1: find the 3-5 best products for a search query. Returns name, brand, description and features of each product.",
	}, s.handleFindProducts)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_product_details",
		Description: "Step 2: get real-time price, purchase link and product image for one product from Google Shopping.",
	}, s.handleProductDetails)

	return s, nil
}

// Handler serves the server over streamable HTTP.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)
}

func (s *Server) handleFindProducts(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FindProductsInput,
) (*mcp.CallToolResult, FindProductsOutput, error) {
	raw := s.finder.FindProducts(ctx, input.SearchQuery)

	out := FindProductsOutput{Products: []model.ProductCandidate{}}
	candidates, err := model.ParseCandidates(raw)
	var toolErr *model.ToolError
	switch {
	case errors.As(err, &toolErr):
		out.Error = toolErr.Message
	case errors.Is(err, model.ErrNoCandidates):
	case err != nil:
		out.Error = err.Error()
	default:
		out.Products = candidates
	}
	return nil, out, nil
}

func (s *Server) handleProductDetails(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ProductDetailsInput,
) (*mcp.CallToolResult, ProductDetailsOutput, error) {
	return nil, ProductDetailsOutput{Details: s.details.Lookup(ctx, input.ProductName)}, nil
}
