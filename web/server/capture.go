package server

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/neuroscope/go-neuroscope/pkg/config"
	"github.com/neuroscope/go-neuroscope/pkg/imageio"
	"github.com/neuroscope/go-neuroscope/pkg/microscope"
	"github.com/neuroscope/go-neuroscope/pkg/swc"
	"github.com/neuroscope/go-neuroscope/pkg/tissue"
)

// handleTissue renders the tissue density map
func (s *Server) handleTissue(w http.ResponseWriter, r *http.Request) {
	job := config.Default()
	values := r.URL.Query()
	if err := parseImageParams(values, &job); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := parseTissueParams(values, &job); err != nil {
		s.writeError(w, r, err)
		return
	}

	m := job.Microscope
	img, err := tissue.NewWithConfig(job.TissueConfig()).Image(r.Context(), m.Width, m.Height, m.VerticalFOV)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeImage(w, r, img, imageio.FormatPNG)
}

// handleCapture captures the SWC morphology posted as the request body
func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	job, format, err := parseCaptureRequest(r.URL.Query(), s.config.Workers)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	model, err := readMorphology(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	img, err := capture(r.Context(), s.requestLogger(r), model, job)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeImage(w, r, img, format)
}

// handleMorphologies lists the morphologies of the served directory by group
func (s *Server) handleMorphologies(w http.ResponseWriter, r *http.Request) {
	groups := []swc.InfoGroup{}
	if s.config.MorphologyDir != "" {
		infos, err := swc.Discover(s.config.MorphologyDir)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if g := swc.GroupInfos(infos); g != nil {
			groups = g
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"groups": groups})
}

// handleMorphologyCapture captures a morphology of the served directory by id
func (s *Server) handleMorphologyCapture(w http.ResponseWriter, r *http.Request) {
	job, format, err := parseCaptureRequest(r.URL.Query(), s.config.Workers)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	info, err := s.findMorphology(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	model, err := swc.Load(info.Path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	img, err := capture(r.Context(), s.requestLogger(r), model, job)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeImage(w, r, img, format)
}

func (s *Server) findMorphology(id string) (swc.Info, error) {
	if s.config.MorphologyDir != "" {
		infos, err := swc.Discover(s.config.MorphologyDir)
		if err != nil {
			return swc.Info{}, err
		}
		for _, info := range infos {
			if info.ID == id {
				return info, nil
			}
		}
	}
	return swc.Info{}, fmt.Errorf("%w: morphology %q", errNotFound, id)
}

// readMorphology parses the request body as SWC, rejecting empty models
func readMorphology(w http.ResponseWriter, r *http.Request) (*swc.Model, error) {
	model, err := swc.Parse(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if model.NodeCount() == 0 {
		return nil, errEmptyBody
	}
	return model, nil
}

// capture runs one microscope capture of model as described by job
func capture(ctx context.Context, logger *log.Logger, model *swc.Model, job config.Job) (image.Image, error) {
	kind, err := job.Kind()
	if err != nil {
		return nil, err
	}
	opts := job.MicroscopeOptions()
	opts.Logger = logger

	scope, err := microscope.New(kind, opts)
	if err != nil {
		return nil, err
	}
	if err := scope.Capture(ctx, model, tissue.NewWithConfig(job.TissueConfig()), job.RigidTransform()); err != nil {
		return nil, err
	}
	return scope.Sensor().Image(), nil
}

// writeImage encodes img before writing so encoder failures still produce a JSON error
func (s *Server) writeImage(w http.ResponseWriter, r *http.Request, img image.Image, format imageio.Format) {
	var buf bytes.Buffer
	if err := imageio.Encode(&buf, img, format); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.requestLogger(r).Warn("failed to write image", "err", err)
	}
}
