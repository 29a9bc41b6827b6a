package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"discord-gif/config"
	"discord-gif/gifopt"
	"discord-gif/middleware"
	"discord-gif/model"
	"discord-gif/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// User facing messages
const (
	msgMissingFile  = "Please choose a GIF file"
	msgTooLarge     = "The GIF is too large to process"
	msgUnsupported  = "Unsupported file type, only GIF is accepted"
	msgNotGIF       = "The file could not be read as a GIF"
	msgCannotReduce = "Unable to optimize the GIF further. Consider reducing the input size."
	msgBusy         = "The optimizer is busy, please try again later"
	msgTimeout      = "Optimizing took too long, consider reducing the input size"
	msgInternal     = "Failed to optimize the GIF"
)

// Processor is the part of gifopt.Optimizer the handler needs.
type Processor interface {
	Process(ctx context.Context, data []byte) (*gifopt.Result, error)
}

type OptimizeHandler struct {
	cfg          *config.Config
	processor    Processor
	semaphore    chan struct{}
	queueTimeout time.Duration
}

func NewOptimizeHandler(cfg *config.Config, processor Processor) *OptimizeHandler {
	maxConcurrent := cfg.Optimizer.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &OptimizeHandler{
		cfg:          cfg,
		processor:    processor,
		semaphore:    make(chan struct{}, maxConcurrent),
		queueTimeout: cfg.Optimizer.QueueTimeout,
	}
}

// Optimize reads the uploaded GIF and answers with the first cascade tier
// that fits, or a JSON error.
func (h *OptimizeHandler) Optimize(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: msgMissingFile,
			Error:   err.Error(),
		})
		return
	}

	if file.Size > h.cfg.Upload.MaxSize {
		c.JSON(http.StatusRequestEntityTooLarge, model.ErrorResponse{
			Success: false,
			Message: fmt.Sprintf("%s (limit %d MB)", msgTooLarge, h.cfg.Upload.MaxSize/(1024*1024)),
		})
		return
	}

	if !h.isAllowedType(file.Header.Get("Content-Type")) {
		c.JSON(http.StatusUnsupportedMediaType, model.ErrorResponse{
			Success: false,
			Message: msgUnsupported,
		})
		return
	}

	src, err := file.Open()
	if err != nil {
		h.internalError(c, "failed to open upload", err)
		return
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, h.cfg.Upload.MaxSize+1))
	if err != nil {
		h.internalError(c, "failed to read upload", err)
		return
	}

	md5 := utils.BytesMD5(data)
	c.Set(middleware.UploadMD5Key, md5)
	utils.Logger.Info("file uploaded",
		zap.String("filename", file.Filename),
		zap.String("md5", md5),
		zap.Int64("size", file.Size))

	// Limit concurrent runs
	release, ok := h.acquire(c.Request.Context())
	if !ok {
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{
			Success: false,
			Message: msgBusy,
		})
		return
	}
	defer release()

	ctx := c.Request.Context()
	if h.cfg.Optimizer.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.Optimizer.Timeout)
		defer cancel()
	}

	result, err := h.processor.Process(ctx, data)
	if err != nil {
		h.processError(c, md5, err)
		return
	}

	c.Set(middleware.OptimizeTierKey, result.State.String())
	if !result.Succeeded() {
		utils.Logger.Warn("gif could not be reduced under the limit",
			zap.String("md5", md5),
			zap.Int("attempts", len(result.Attempts)))
		c.JSON(http.StatusUnprocessableEntity, model.ErrorResponse{
			Success:  false,
			Message:  msgCannotReduce,
			Attempts: attempts(result),
		})
		return
	}

	anim := result.Animation
	c.Set(middleware.OptimizeTierKey, result.Tier.Name)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": result.Tier.Filename}))
	c.Header("X-Optimize-Tier", result.Tier.Name)
	c.Header("X-Optimize-Caption", result.Tier.Caption)
	c.Header("X-Optimize-Size-KB", strconv.FormatFloat(anim.SizeKB(), 'f', 2, 64))
	c.Header("X-Upload-MD5", md5)
	c.Data(http.StatusOK, "image/gif", anim.Data)
}

func (h *OptimizeHandler) acquire(ctx context.Context) (func(), bool) {
	var timeout <-chan time.Time
	if h.queueTimeout > 0 {
		timer := time.NewTimer(h.queueTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case h.semaphore <- struct{}{}:
		return func() { <-h.semaphore }, true
	case <-timeout:
		return nil, false
	case <-ctx.Done():
		return nil, false
	}
}

func (h *OptimizeHandler) processError(c *gin.Context, md5 string, err error) {
	var decodeErr *gifopt.DecodeError
	switch {
	case errors.As(err, &decodeErr):
		utils.Logger.Info("rejected undecodable upload", zap.String("md5", md5), zap.Error(err))
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: msgNotGIF,
			Error:   err.Error(),
		})
	case errors.Is(err, gifopt.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, model.ErrorResponse{
			Success: false,
			Message: msgTooLarge,
			Error:   err.Error(),
		})
	case errors.Is(err, context.DeadlineExceeded):
		utils.Logger.Warn("optimize timed out", zap.String("md5", md5))
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{
			Success: false,
			Message: msgTimeout,
		})
	default:
		h.internalError(c, "failed to optimize gif", err, zap.String("md5", md5))
	}
}

func (h *OptimizeHandler) internalError(c *gin.Context, msg string, err error, fields ...zap.Field) {
	utils.Logger.Error(msg, append(fields, zap.Error(err))...)
	c.JSON(http.StatusInternalServerError, model.ErrorResponse{
		Success: false,
		Message: msgInternal,
		Error:   err.Error(),
	})
}

func (h *OptimizeHandler) isAllowedType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	for _, allowed := range h.cfg.Upload.AllowedTypes {
		if strings.EqualFold(mediaType, allowed) {
			return true
		}
	}
	return false
}

func attempts(result *gifopt.Result) []model.Attempt {
	out := make([]model.Attempt, 0, len(result.Attempts))
	for _, a := range result.Attempts {
		out = append(out, model.Attempt{
			State:    a.State.String(),
			Tier:     a.Tier,
			Frames:   a.Frames,
			Duration: a.Duration,
			Palette:  a.Palette,
			SizeKB:   a.SizeKB,
			Accepted: a.Accepted,
		})
	}
	return out
}
