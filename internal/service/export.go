package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/waymarkhq/waymark/internal/domain"
	"github.com/waymarkhq/waymark/internal/repo"
)

// ExportService assembles flat per-point exports of a route and renders them
// as GPX, CSV, or JSON.
type ExportService struct {
	routes repo.RouteRepo
}

// NewExportService constructs an ExportService backed by the provided RouteRepo.
func NewExportService(routes repo.RouteRepo) *ExportService {
	return &ExportService{routes: routes}
}

// Export returns one ExportRow per point on the route, in route order.
// Returns domain.ErrNotFound if the route does not exist.
func (s *ExportService) Export(ctx context.Context, routeID uuid.UUID) ([]domain.ExportRow, error) {
	route, err := s.routes.GetByID(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}

	rows := make([]domain.ExportRow, 0, len(route.Points))
	for i, p := range route.Points {
		rows = append(rows, domain.ExportRow{
			RouteID:     route.ID.String(),
			RouteName:   route.Name,
			RouteMode:   string(route.Mode),
			Index:       i,
			PointName:   p.Name,
			Lat:         p.Lat,
			Lng:         p.Lng,
			Address:     p.Address,
			Category:    string(p.Category),
			Description: p.Description,
			Tags:        p.Tags,
		})
	}
	return rows, nil
}

// WriteCSV renders rows as CSV with a header line. Tags are joined with "|"
// so the column stays a single cell.
func (s *ExportService) WriteCSV(w io.Writer, rows []domain.ExportRow) error {
	cw := csv.NewWriter(w)
	header := []string{"route_id", "route_name", "route_type", "index", "point_name",
		"lat", "lng", "address", "category", "description", "tags"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("service.ExportService.WriteCSV: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.RouteID,
			r.RouteName,
			r.RouteMode,
			strconv.Itoa(r.Index),
			r.PointName,
			strconv.FormatFloat(r.Lat, 'f', -1, 64),
			strconv.FormatFloat(r.Lng, 'f', -1, 64),
			r.Address,
			r.Category,
			r.Description,
			strings.Join(r.Tags, "|"),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("service.ExportService.WriteCSV: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("service.ExportService.WriteCSV: %w", err)
	}
	return nil
}

// WriteJSON renders rows as a JSON array.
func (s *ExportService) WriteJSON(w io.Writer, rows []domain.ExportRow) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(exportRowsJSON(rows)); err != nil {
		return fmt.Errorf("service.ExportService.WriteJSON: %w", err)
	}
	return nil
}

// exportRowJSON gives ExportRow stable snake_case JSON field names without
// putting wire tags on the domain type.
type exportRowJSON struct {
	RouteID     string   `json:"route_id"`
	RouteName   string   `json:"route_name"`
	RouteMode   string   `json:"route_type"`
	Index       int      `json:"index"`
	PointName   string   `json:"point_name"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	Address     string   `json:"address,omitempty"`
	Category    string   `json:"category,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

func exportRowsJSON(rows []domain.ExportRow) []exportRowJSON {
	out := make([]exportRowJSON, len(rows))
	for i, r := range rows {
		out[i] = exportRowJSON(r)
	}
	return out
}

// ---- GPX -------------------------------------------------------------------

// gpxFile is the subset of the GPX 1.1 schema the export produces: one
// waypoint per route point plus a single rte with the same sequence.
type gpxFile struct {
	XMLName   xml.Name      `xml:"gpx"`
	Version   string        `xml:"version,attr"`
	Creator   string        `xml:"creator,attr"`
	Namespace string        `xml:"xmlns,attr"`
	Waypoints []gpxWaypoint `xml:"wpt"`
	Route     gpxRoute      `xml:"rte"`
}

type gpxWaypoint struct {
	Lat  float64 `xml:"lat,attr"`
	Lon  float64 `xml:"lon,attr"`
	Name string  `xml:"name"`
	Desc string  `xml:"desc,omitempty"`
	Type string  `xml:"type,omitempty"`
}

type gpxRoute struct {
	Name   string        `xml:"name"`
	Points []gpxWaypoint `xml:"rtept"`
}

// WriteGPX renders rows as a GPX 1.1 document.
func (s *ExportService) WriteGPX(w io.Writer, rows []domain.ExportRow) error {
	doc := gpxFile{
		Version:   "1.1",
		Creator:   "waymark",
		Namespace: "http://www.topografix.com/GPX/1/1",
	}
	if len(rows) > 0 {
		doc.Route.Name = rows[0].RouteName
	}
	for _, r := range rows {
		wpt := gpxWaypoint{
			Lat:  r.Lat,
			Lon:  r.Lng,
			Name: r.PointName,
			Desc: r.Description,
			Type: r.Category,
		}
		doc.Waypoints = append(doc.Waypoints, wpt)
		doc.Route.Points = append(doc.Route.Points, wpt)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("service.ExportService.WriteGPX: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("service.ExportService.WriteGPX: %w", err)
	}
	return nil
}
