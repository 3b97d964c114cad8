package web

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/topi314/clubagenda/server/auth"
	"github.com/topi314/clubagenda/server/export"
)

func (h *handler) ExportZip(w http.ResponseWriter, r *http.Request) {
	number, err := pathInt(r, "meeting_number")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	projection, err := h.Export.Load(ctx, auth.GetPrincipal(ctx), number)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=meeting_%d.zip", number))
	if err = export.WriteZip(w, *projection); err != nil {
		slog.ErrorContext(ctx, "Failed to write export zip", slog.Int("meeting_number", number), slog.Any("err", err))
		return
	}
	slog.InfoContext(ctx, "Exported meeting", slog.Int("meeting_number", number))
}

func (h *handler) ExportSheets(w http.ResponseWriter, r *http.Request) {
	number, err := pathInt(r, "meeting_number")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	updated, err := h.Export.PushSheet(ctx, auth.GetPrincipal(ctx), number)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, map[string]any{"range": updated})
}

func (h *handler) ExportAgendaCSV(w http.ResponseWriter, r *http.Request) {
	number, err := pathInt(r, "meeting_number")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	projection, err := h.Export.Load(ctx, auth.GetPrincipal(ctx), number)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=meeting_%d_agenda.csv", number))
	if err = export.WriteAgendaCSV(w, *projection); err != nil {
		slog.ErrorContext(ctx, "Failed to write agenda csv", slog.Int("meeting_number", number), slog.Any("err", err))
	}
}
