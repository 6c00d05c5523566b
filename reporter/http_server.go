// This is the http surface of the minter.
// Every action of the user has a route; the state the user
// sees is published on /status.

package reporter

import (
	"context"
	"errors"
	"io"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mwcommon "github.com/TEENet-io/mintwrap-go/common"
	"github.com/TEENet-io/mintwrap-go/sequencer"
	"github.com/TEENet-io/mintwrap-go/status"
)

const (
	ROUTE_HELLO      = "/hello"
	ROUTE_STATUS     = "/status"
	ROUTE_CONNECT    = "/connect"
	ROUTE_DISCONNECT = "/disconnect"
	ROUTE_MINT       = "/mint"
	ROUTE_WRAP       = "/wrap"
	ROUTE_METRICS    = "/metrics"
)

// Controller performs the user actions. *cmd.Minter implements it.
type Controller interface {
	Connect(ctx context.Context) (common.Address, error)
	Disconnect()
	MintAndWrap(ctx context.Context, uri string) (*sequencer.WrapConfirmation, error)
	Wrap(ctx context.Context, tokenId *big.Int, uri string) (*sequencer.WrapConfirmation, error)
	Status() status.Snapshot
}

type MintRequest struct {
	URI string `json:"uri"`
}

type WrapRequest struct {
	TokenId string `json:"token_id" binding:"required"`
	URI     string `json:"uri"`
}

type WrapResponse struct {
	TokenId string `json:"token_id"`
	URI     string `json:"uri"`
	MintTx  string `json:"mint_tx,omitempty"`
	WrapTx  string `json:"wrap_tx"`
}

type HttpReporter struct {
	serverIP   string // listen ip
	serverPort string // listen port

	controller Controller
	gatherer   prometheus.Gatherer // may be nil
}

func NewHttpReporter(serverIP string, serverPort string, controller Controller, gatherer prometheus.Gatherer) *HttpReporter {
	return &HttpReporter{
		serverIP:   serverIP,
		serverPort: serverPort,
		controller: controller,
		gatherer:   gatherer,
	}
}

// Hook up routes & handlers
func (h *HttpReporter) SetupRouter() *gin.Engine {
	router := gin.Default()

	router.GET(ROUTE_HELLO, Hello)
	router.GET(ROUTE_STATUS, h.Status)
	router.POST(ROUTE_CONNECT, h.Connect)
	router.POST(ROUTE_DISCONNECT, h.Disconnect)
	router.POST(ROUTE_MINT, h.Mint)
	router.POST(ROUTE_WRAP, h.Wrap)
	if h.gatherer != nil {
		router.GET(ROUTE_METRICS, gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}

	return router
}

// Address is the ip:port the reporter is meant to listen on.
func (h *HttpReporter) Address() string {
	return h.serverIP + ":" + h.serverPort
}

// Example route.
func Hello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "world",
	})
}

func (h *HttpReporter) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.controller.Status())
}

func (h *HttpReporter) Connect(c *gin.Context) {
	addr, err := h.controller.Connect(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "status": h.controller.Status()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": addr.Hex(), "status": h.controller.Status()})
}

func (h *HttpReporter) Disconnect(c *gin.Context) {
	h.controller.Disconnect()
	c.JSON(http.StatusOK, gin.H{"status": h.controller.Status()})
}

// Mint runs a whole mint and wrap sequence and answers once both
// transactions are confirmed. A client going away does not stop it.
func (h *HttpReporter) Mint(c *gin.Context) {
	var req MintRequest
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		// an empty body asks for the default uri
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	conf, err := h.controller.MintAndWrap(context.WithoutCancel(c.Request.Context()), req.URI)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toWrapResponse(conf), "status": h.controller.Status()})
}

// Wrap wraps a token minted before.
func (h *HttpReporter) Wrap(c *gin.Context) {
	var req WrapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tokenId, err := mwcommon.ParseTokenId(req.TokenId)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conf, err := h.controller.Wrap(context.WithoutCancel(c.Request.Context()), tokenId, req.URI)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toWrapResponse(conf), "status": h.controller.Status()})
}

func (h *HttpReporter) respondError(c *gin.Context, err error) {
	body := gin.H{
		"error":   err.Error(),
		"outcome": sequencer.Outcome(err),
		"status":  h.controller.Status(),
	}

	var wrapErr *sequencer.WrapFailedError
	if errors.As(err, &wrapErr) && wrapErr.TokenId != nil {
		body["token_id"] = wrapErr.TokenId.String()
	}

	c.JSON(httpStatus(err), body)
}

func httpStatus(err error) int {
	switch sequencer.Outcome(err) {
	case sequencer.OutcomeNotConnected:
		return http.StatusPreconditionFailed
	case sequencer.OutcomeInFlight:
		return http.StatusConflict
	case sequencer.OutcomeMintFailed, sequencer.OutcomeTokenIdNotFound, sequencer.OutcomeWrapFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func toWrapResponse(conf *sequencer.WrapConfirmation) *WrapResponse {
	resp := &WrapResponse{
		TokenId: conf.TokenId.String(),
		URI:     conf.URI,
		WrapTx:  conf.WrapTxHash.Hex(),
	}
	if conf.MintTxHash != (common.Hash{}) {
		resp.MintTx = conf.MintTxHash.Hex()
	}
	return resp
}
