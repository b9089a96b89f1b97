package server

import (
	"net/http"

	"github.com/neuroscope/go-neuroscope/pkg/core"
	"github.com/neuroscope/go-neuroscope/pkg/renderer"
	"github.com/neuroscope/go-neuroscope/pkg/rtc"
	"github.com/neuroscope/go-neuroscope/pkg/scene"
	"github.com/neuroscope/go-neuroscope/pkg/tissue"
)

// InspectResponse describes what the ray through one pixel centre hits
type InspectResponse struct {
	Hit         bool       `json:"hit"`
	Part        string     `json:"part,omitempty"`        // "soma" or "neurite"
	NeuriteType string     `json:"neuriteType,omitempty"` // SWC type of the neurite segment
	GeomID      uint32     `json:"geomId"`
	PrimID      uint32     `json:"primId"`
	Distance    float32    `json:"distance"`
	Point       [3]float32 `json:"point"`
	PlanePoint  [2]float32 `json:"planePoint"`
	Density     float32    `json:"density"` // tissue density at the plane point
}

// inspectPixel casts the segmentation ray through the centre of pixel (x, y)
func inspectPixel(sc *scene.Scene, camera renderer.Camera, elevation float32, x, y int) InspectResponse {
	p := camera.PlanePoint(x, y, renderer.PixelCenter)
	origin := core.NewVec3(p.X, p.Y, elevation)
	response := InspectResponse{
		GeomID:     rtc.InvalidGeometryID,
		PrimID:     rtc.InvalidGeometryID,
		PlanePoint: [2]float32{p.X, p.Y},
	}

	hit := sc.Intersect(origin, core.Down)
	if !hit.IsHit() {
		return response
	}

	point := core.NewRay(origin, core.Down).At(hit.Distance)
	response.Hit = true
	response.GeomID = hit.GeomID
	response.PrimID = hit.PrimID
	response.Distance = hit.Distance
	response.Point = [3]float32{point.X, point.Y, point.Z}
	if sc.IsNeurite(hit.GeomID) {
		response.Part = "neurite"
		response.NeuriteType = sc.NeuriteType(hit.PrimID).String()
	} else {
		response.Part = "soma"
	}
	return response
}

// handleInspect reports the surface under one pixel of a capture of the posted morphology
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	job, _, err := parseCaptureRequest(r.URL.Query(), s.config.Workers)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	m := job.Microscope
	values := r.URL.Query()
	x, err := parseIntParam(values, "x", m.Width/2, 0, m.Width-1)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	y, err := parseIntParam(values, "y", m.Height/2, 0, m.Height-1)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	model, err := readMorphology(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	logger := s.requestLogger(r)
	device := rtc.NewDevice(rtc.WithLogger(logger), rtc.WithErrorFunc(func(code rtc.ErrorCode, message string) {
		logger.Warnf("ray caster error (%s): %s", code, message)
	}))
	sc, err := scene.Build(device, model, job.RigidTransform())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	camera := renderer.NewCamera(m.Width, m.Height, m.VerticalFOV)
	response := inspectPixel(sc, camera, m.Elevation, x, y)
	response.Density = tissue.NewWithConfig(job.TissueConfig()).Density(core.NewVec2(response.PlanePoint[0], response.PlanePoint[1]))
	writeJSON(w, http.StatusOK, response)
}
