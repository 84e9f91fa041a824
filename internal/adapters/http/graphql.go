package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/ecoloop/scrapmap/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"latitude":  &graphql.Field{Type: graphql.Float},
			"longitude": &graphql.Field{Type: graphql.Float},
		},
	})

	markerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Marker",
		Fields: graphql.Fields{
			"listing_id": &graphql.Field{Type: graphql.String},
			"point":      &graphql.Field{Type: geoPointType},
			"title":      &graphql.Field{Type: graphql.String},
			"price":      &graphql.Field{Type: graphql.Float},
			"quantity":   &graphql.Field{Type: graphql.Float},
			"unit":       &graphql.Field{Type: graphql.String},
			"category":   &graphql.Field{Type: graphql.String},
			"color":      &graphql.Field{Type: graphql.String},
			"size":       &graphql.Field{Type: graphql.Int},
		},
	})

	pickupType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PickupRequest",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.String},
			"listing_id":   &graphql.Field{Type: graphql.String},
			"requester_id": &graphql.Field{Type: graphql.String},
			"point":        &graphql.Field{Type: geoPointType},
			"note":         &graphql.Field{Type: graphql.String},
			"distance_m":   &graphql.Field{Type: graphql.Float},
		},
	})

	viewportType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Viewport",
		Fields: graphql.Fields{
			"center":             &graphql.Field{Type: geoPointType},
			"zoom":               &graphql.Field{Type: graphql.Int},
			"selected_marker_id": &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"markers": &graphql.Field{
				Type:        graphql.NewList(markerType),
				Description: "All listings with a decodable pickup location",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					markers, err := deps.Markers.LoadAll(p.Context)
					if err != nil {
						return nil, err
					}
					return markerViews(deps, markers), nil
				},
			},
			"marker": &graphql.Field{
				Type:        markerType,
				Description: "One listing's marker",
				Args: graphql.FieldConfigArgument{
					"listing_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["listing_id"].(string)
					m, err := deps.Markers.LoadOne(p.Context, id)
					if err != nil {
						return nil, err
					}
					return MarkerView{
						ListingMarker: *m,
						Color:         usecases.MarkerColor(m.Category),
						Size:          deps.MapView.MarkerSize(m.ListingID),
					}, nil
				},
			},
			"pickups": &graphql.Field{
				Type:        graphql.NewList(pickupType),
				Description: "Pickup requests for a listing",
				Args: graphql.FieldConfigArgument{
					"listing_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["listing_id"].(string)
					return deps.Pickups.ListPickups(p.Context, id)
				},
			},
			"viewport": &graphql.Field{
				Type:        viewportType,
				Description: "The current map view state",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.MapView.State(), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
