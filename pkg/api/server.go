// Package api exposes a flow graph over HTTP. It carries the same
// operations as the desktop bindings, so a flow can be driven from curl
// or any frontend that speaks JSON.
package api

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v3"

	"github.com/chamlis/flowgrid/pkg/engine"
	"github.com/chamlis/flowgrid/pkg/graph"
)

// Server holds one in-memory flow graph and serves it over HTTP. All
// handlers serialize on a single mutex: the graph is plain data and the
// HTTP layer is its only concurrent entry point.
type Server struct {
	mu     sync.Mutex
	graph  *graph.FlowGraph
	engine *engine.Engine
	log    *slog.Logger
}

// NewServer creates a Server with an empty graph. A nil logger defaults to
// slog.Default().
func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		graph:  graph.New(),
		engine: engine.NewEngine(nil, logger),
		log:    logger,
	}
}

// App builds the fiber application with all routes mounted.
func (s *Server) App() *fiber.App {
	app := fiber.New()
	app.Use(s.logRequests)

	app.Post("/nodes", s.createNode)
	app.Get("/nodes/:id", s.getNode)
	app.Delete("/nodes/:id", s.deleteNode)
	app.Put("/nodes/:id/value", s.setValue)
	app.Put("/nodes/:id/code", s.setCode)
	app.Put("/nodes/:id/label", s.setLabel)
	app.Put("/nodes/:id/position", s.setPosition)

	app.Post("/connections", s.createConnection)
	app.Delete("/connections/:source/:target", s.deleteConnection)

	app.Get("/graph", s.getGraph)
	app.Get("/diagnostics", s.getDiagnostics)
	app.Post("/run", s.run)

	return app
}

func (s *Server) logRequests(c fiber.Ctx) error {
	err := c.Next()
	s.log.Info("request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode())
	return err
}

type nodeDTO struct {
	ID         string   `json:"id"`
	Kind       string   `json:"kind"`
	Label      string   `json:"label"`
	DataType   string   `json:"data_type"`
	Value      string   `json:"value,omitempty"`
	CustomCode string   `json:"custom_code,omitempty"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Inputs     []string `json:"inputs"`
	Outputs    []string `json:"outputs"`
}

type connectionDTO struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type graphDTO struct {
	Nodes       []nodeDTO       `json:"nodes"`
	Connections []connectionDTO `json:"connections"`
}

type diagnosticDTO struct {
	Node     string `json:"node,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

type resultDTO struct {
	Node    string `json:"node"`
	Label   string `json:"label"`
	Display string `json:"display"`
	Error   string `json:"error,omitempty"`
}

func toNodeDTO(n *graph.Node) nodeDTO {
	return nodeDTO{
		ID:         string(n.ID),
		Kind:       n.Kind.String(),
		Label:      n.Label,
		DataType:   n.DataType.String(),
		Value:      graph.DisplayValue(n.Value),
		CustomCode: n.CustomCode,
		X:          n.X,
		Y:          n.Y,
		Inputs:     idStrings(n.Inputs),
		Outputs:    idStrings(n.Outputs),
	}
}

func idStrings(ids []graph.NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func (s *Server) createNode(c fiber.Ctx) error {
	var req struct {
		Kind string  `json:"kind"`
		X    float64 `json:"x"`
		Y    float64 `json:"y"`
	}
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
	}
	kind, err := graph.ParseNodeKind(req.Kind)
	if err != nil {
		return c.Status(422).JSON(fiber.Map{"error": err.Error()})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.graph.AddNode(kind, req.X, req.Y)
	return c.Status(201).JSON(toNodeDTO(n))
}

func (s *Server) getNode(c fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.graph.Get(graph.NodeID(c.Params("id")))
	if n == nil {
		return c.Status(404).JSON(fiber.Map{"error": "node not found"})
	}
	return c.JSON(toNodeDTO(n))
}

func (s *Server) deleteNode(c fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Deleting an absent node is a no-op, so this is idempotent.
	s.graph.DeleteNode(graph.NodeID(c.Params("id")))
	return c.SendStatus(204)
}

func (s *Server) setValue(c fiber.Ctx) error {
	var req struct {
		DataType string `json:"data_type"`
		Value    string `json:"value"`
	}
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
	}
	dt, err := graph.ParseDataType(req.DataType)
	if err != nil {
		return c.Status(422).JSON(fiber.Map{"error": err.Error()})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.graph.SetInputValue(graph.NodeID(c.Params("id")), dt, req.Value)
	if errors.Is(err, graph.ErrNodeNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "node not found"})
	}
	if err != nil {
		return c.Status(422).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(204)
}

func (s *Server) setCode(c fiber.Ctx) error {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.graph.SetCustomCode(graph.NodeID(c.Params("id")), req.Code)
	if errors.Is(err, graph.ErrNodeNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "node not found"})
	}
	if err != nil {
		return c.Status(422).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(204)
}

func (s *Server) setLabel(c fiber.Ctx) error {
	var req struct {
		Label string `json:"label"`
	}
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.graph.SetLabel(graph.NodeID(c.Params("id")), req.Label); err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "node not found"})
	}
	return c.SendStatus(204)
}

func (s *Server) setPosition(c fiber.Ctx) error {
	var req struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.graph.MoveNode(graph.NodeID(c.Params("id")), req.X, req.Y); err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "node not found"})
	}
	return c.SendStatus(204)
}

func (s *Server) createConnection(c fiber.Ctx) error {
	var req connectionDTO
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.graph.Connect(graph.NodeID(req.Source), graph.NodeID(req.Target))
	if errors.Is(err, graph.ErrNodeNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "node not found"})
	}
	if err != nil {
		// Self loop, duplicate edge, or occupied output input.
		return c.Status(422).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(201).JSON(req)
}

func (s *Server) deleteConnection(c fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.graph.Disconnect(
		graph.NodeID(c.Params("source")),
		graph.NodeID(c.Params("target")))
	if errors.Is(err, graph.ErrNodeNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "node not found"})
	}
	return c.SendStatus(204)
}

func (s *Server) getGraph(c fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dto := graphDTO{
		Nodes:       []nodeDTO{},
		Connections: []connectionDTO{},
	}
	for _, n := range s.graph.Nodes() {
		dto.Nodes = append(dto.Nodes, toNodeDTO(n))
	}
	for _, conn := range s.graph.Connections() {
		dto.Connections = append(dto.Connections, connectionDTO{
			Source: string(conn.Source),
			Target: string(conn.Target),
		})
	}
	return c.JSON(dto)
}

func (s *Server) getDiagnostics(c fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dtos := []diagnosticDTO{}
	for _, d := range graph.Validate(s.graph) {
		dtos = append(dtos, diagnosticDTO{
			Node:     string(d.Node),
			Message:  d.Message,
			Severity: d.Severity.String(),
		})
	}
	return c.JSON(dtos)
}

func (s *Server) run(c fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	results, err := s.engine.Execute(s.graph)
	if errors.Is(err, engine.ErrNoOutputs) {
		return c.Status(422).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	dtos := make([]resultDTO, 0, len(results))
	for _, r := range results {
		dto := resultDTO{
			Node:    string(r.Node),
			Label:   r.Label,
			Display: r.Display,
		}
		if r.Err != nil {
			dto.Error = r.Err.Error()
		}
		dtos = append(dtos, dto)
	}
	return c.JSON(dtos)
}
