package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"nhooyr.io/websocket"

	"rwdledger/core"
	"rwdledger/core/events"
	"rwdledger/core/genesis"
	"rwdledger/crypto"
	"rwdledger/native/rewards"
	"rwdledger/observability"
	"rwdledger/services/rewardsd/journal"
	"rwdledger/storage"
)

const testSecret = "read-secret"

type testServer struct {
	srv     *Server
	handler http.Handler
	feed    *events.Feed
	admin   *crypto.PrivateKey
	user    *crypto.PrivateKey
	nonce   uint64
}

func mustKey(t *testing.T) *crypto.PrivateKey {
	t.Helper()
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	return key
}

func addressOf(key *crypto.PrivateKey) string {
	return key.PubKey().Address().String()
}

func collectorAddress() string {
	var raw [20]byte
	raw[19] = 0x0F
	return crypto.Bech32(raw)
}

func newTestServer(t *testing.T, bootstrap bool, mutate func(*Config)) *testServer {
	t.Helper()
	admin, user := mustKey(t), mustKey(t)

	var authority [20]byte
	authority[19] = 0x09
	spec := &genesis.GenesisSpec{
		Collateral: genesis.CollateralSpec{Symbol: "USDC", Decimals: 6, MintAuthority: crypto.Bech32(authority)},
		Alloc:      map[string]string{addressOf(user): "1000"},
	}
	if bootstrap {
		spec.Rewards = &genesis.RewardsSpec{
			Admin:            addressOf(admin),
			Name:             "Reward",
			Symbol:           "RWD",
			Decimals:         6,
			MintFeeBps:       500,
			RedemptionFeeBps: 200,
			FeeCollector:     collectorAddress(),
		}
	}
	require.NoError(t, spec.Validate())

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	j, err := journal.New(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	registry := prometheus.NewRegistry()
	metrics := observability.NewRewardsMetrics(registry)
	feed := events.NewFeed()

	params := rewards.DefaultParams()
	params.CollateralMint = spec.CollateralMint()
	rt, err := core.NewRuntime(storage.NewMemDB(), params,
		core.WithEmitter(events.Multi{feed, journal.NewEmitter(j, nil)}),
		core.WithMetrics(metrics))
	require.NoError(t, err)
	require.NoError(t, rt.ApplyGenesis(context.Background(), spec))

	cfg := Config{ListenAddress: "127.0.0.1:0"}
	if mutate != nil {
		mutate(&cfg)
	}
	srv, err := New(cfg, Deps{Runtime: rt, Journal: j, Feed: feed, Metrics: metrics, Gatherer: registry})
	require.NoError(t, err)
	return &testServer{srv: srv, handler: srv.Handler(), feed: feed, admin: admin, user: user}
}

func (ts *testServer) post(t *testing.T, key *crypto.PrivateKey, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	ts.nonce++
	env, err := SignEnvelope(key, http.MethodPost, path, ts.nonce, payload)
	require.NoError(t, err)
	return ts.postEnvelope(t, path, env)
}

func (ts *testServer) postEnvelope(t *testing.T, path string, env *Envelope) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(env)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) get(t *testing.T, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestMintThenQueryAccountAndEvents(t *testing.T) {
	ts := newTestServer(t, true, nil)

	rec := ts.post(t, ts.user, "/v1/mint", AmountRequest{Amount: 1_000})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	evt := decode[EventResponse](t, rec)
	require.Equal(t, rewards.TypeMint, evt.Type)
	require.Equal(t, "950", evt.Attributes["amount_minted"])
	require.Equal(t, "50", evt.Attributes["fee_amount"])
	require.Equal(t, "100", evt.Attributes["usdc_spent"])

	rec = ts.get(t, "/v1/accounts/"+addressOf(ts.user), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	account := decode[AccountResponse](t, rec)
	require.Equal(t, "950", account.RewardBalance)
	require.Equal(t, "900", account.CollateralBalance)

	rec = ts.get(t, "/v1/vault", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "100", decode[VaultResponse](t, rec).Balance)

	rec = ts.get(t, "/v1/token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode[TokenResponse](t, rec)
	require.Equal(t, "RWD", token.Symbol)
	require.Equal(t, "1000", token.Supply)

	rec = ts.get(t, "/v1/events?type="+rewards.TypeMint, "")
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[struct {
		Events []journal.Entry `json:"events"`
	}](t, rec)
	require.Len(t, listed.Events, 1)
	require.Equal(t, "950", listed.Events[0].Attributes["amount_minted"])

	rec = ts.get(t, "/v1/events", "")
	require.Equal(t, http.StatusOK, rec.Code)
	listed = decode[struct {
		Events []journal.Entry `json:"events"`
	}](t, rec)
	require.Len(t, listed.Events, 4)
}

func TestBurnAndTransfer(t *testing.T) {
	ts := newTestServer(t, true, nil)
	require.Equal(t, http.StatusOK, ts.post(t, ts.user, "/v1/mint", AmountRequest{Amount: 1_000}).Code)

	rec := ts.post(t, ts.user, "/v1/burn", AmountRequest{Amount: 500})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	burn := decode[EventResponse](t, rec)
	require.Equal(t, "10", burn.Attributes["fee_amount"])
	require.Equal(t, "49", burn.Attributes["usdc_amount"])

	rec = ts.post(t, ts.user, "/v1/transfer", TransferRequest{Recipient: addressOf(ts.admin), Amount: 100})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "100", decode[EventResponse](t, rec).Attributes["amount"])

	rec = ts.post(t, ts.user, "/v1/transfer", TransferRequest{Recipient: "not-an-address", Amount: 1})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t, true, nil)

	rec := ts.post(t, ts.user, "/v1/burn", AmountRequest{Amount: 10})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[errorBody](t, rec)
	require.Equal(t, uint32(6002), body.Code)
	require.Equal(t, rewards.Codespace, body.Codespace)

	rec = ts.post(t, ts.user, "/v1/freeze", FreezeRequest{Target: "mint"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, uint32(6000), decode[errorBody](t, rec).Code)

	rec = ts.post(t, ts.admin, "/v1/freeze", FreezeRequest{Target: "mint"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.True(t, decode[FreezeResponse](t, rec).FreezeMint)

	rec = ts.post(t, ts.user, "/v1/mint", AmountRequest{Amount: 100})
	require.Equal(t, http.StatusLocked, rec.Code)
	require.Equal(t, uint32(6007), decode[errorBody](t, rec).Code)

	rec = ts.post(t, ts.admin, "/v1/unfreeze", FreezeRequest{Target: "mint"})
	require.Equal(t, http.StatusOK, rec.Code)

	bps := uint16(10_001)
	rec = ts.post(t, ts.admin, "/v1/fees/update", UpdateFeesRequest{MintFeeBps: &bps})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, uint32(6003), decode[errorBody](t, rec).Code)

	rec = ts.post(t, ts.admin, "/v1/fees/initialize", InitializeFeesRequest{FeeCollector: collectorAddress()})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, uint32(6001), decode[errorBody](t, rec).Code)

	rec = ts.post(t, ts.admin, "/v1/freeze", FreezeRequest{Target: "sideways"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateFeesByAuthority(t *testing.T) {
	ts := newTestServer(t, true, nil)
	bps := uint16(300)
	rec := ts.post(t, ts.admin, "/v1/fees/update", UpdateFeesRequest{TransferFeeBps: &bps})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	fees := decode[FeesResponse](t, rec)
	require.Equal(t, uint16(300), fees.TransferFeeBps)
	require.Equal(t, uint16(500), fees.MintFeeBps)

	rec = ts.get(t, "/v1/fees", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, uint16(300), decode[FeesResponse](t, rec).TransferFeeBps)
}

func TestBootstrapOverHTTP(t *testing.T) {
	ts := newTestServer(t, false, nil)

	rec := ts.get(t, "/v1/token", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.post(t, ts.admin, "/v1/token/initialize", InitializeTokenRequest{Name: "Reward", Symbol: "RWD", Decimals: 6})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, addressOf(ts.admin), decode[TokenResponse](t, rec).Admin)

	rec = ts.post(t, ts.admin, "/v1/freeze/initialize", struct{}{})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, addressOf(ts.admin), decode[FreezeResponse](t, rec).Authority)

	rec = ts.post(t, ts.admin, "/v1/fees/initialize", InitializeFeesRequest{MintFeeBps: 100, FeeCollector: collectorAddress()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.post(t, ts.user, "/v1/mint", AmountRequest{Amount: 1_000})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "990", decode[EventResponse](t, rec).Attributes["amount_minted"])
}

func TestEnvelopeRejections(t *testing.T) {
	ts := newTestServer(t, true, nil)

	env, err := SignEnvelope(ts.user, http.MethodPost, "/v1/mint", 7, AmountRequest{Amount: 10})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, ts.postEnvelope(t, "/v1/mint", env).Code)

	rec := ts.postEnvelope(t, "/v1/mint", env)
	require.Equal(t, http.StatusConflict, rec.Code)

	forged, err := SignEnvelope(ts.admin, http.MethodPost, "/v1/mint", 8, AmountRequest{Amount: 10})
	require.NoError(t, err)
	forged.Caller = addressOf(ts.user)
	require.Equal(t, http.StatusUnauthorized, ts.postEnvelope(t, "/v1/mint", forged).Code)

	wrongRoute, err := SignEnvelope(ts.user, http.MethodPost, "/v1/burn", 9, AmountRequest{Amount: 10})
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, ts.postEnvelope(t, "/v1/mint", wrongRoute).Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/mint", strings.NewReader("{not json"))
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReadAuthRequiresBearer(t *testing.T) {
	ts := newTestServer(t, true, func(cfg *Config) {
		cfg.Auth = AuthConfig{Enabled: true, HMACSecret: testSecret, Issuer: "ops"}
	})

	require.Equal(t, http.StatusUnauthorized, ts.get(t, "/v1/fees", "").Code)

	claims := jwt.RegisteredClaims{
		Subject:   "dashboard",
		Issuer:    "ops",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, ts.get(t, "/v1/fees", signed).Code)

	wrong, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other"))
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, ts.get(t, "/v1/fees", wrong).Code)

	require.Equal(t, http.StatusOK, ts.get(t, "/healthz", "").Code)
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, true, func(cfg *Config) {
		cfg.RateLimit = RateLimit{RequestsPerSecond: 1, Burst: 1}
	})
	fixed := time.Now()
	ts.srv.limiter.clockNow = func() time.Time { return fixed }

	require.Equal(t, http.StatusOK, ts.get(t, "/v1/freeze", "").Code)
	require.Equal(t, http.StatusTooManyRequests, ts.get(t, "/v1/freeze", "").Code)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, true, nil)
	require.Equal(t, http.StatusOK, ts.get(t, "/healthz", "").Code)
	require.Equal(t, http.StatusOK, ts.post(t, ts.user, "/v1/mint", AmountRequest{Amount: 100}).Code)

	rec := ts.get(t, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "rwd_engine_operations_total")
}

func TestEventStream(t *testing.T) {
	ts := newTestServer(t, true, nil)
	httpServer := httptest.NewServer(ts.handler)
	defer httpServer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/v1/events/stream"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	require.Eventually(t, func() bool { return ts.feed.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, http.StatusOK, ts.post(t, ts.user, "/v1/mint", AmountRequest{Amount: 1_000}).Code)

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var evt EventResponse
	require.NoError(t, json.Unmarshal(data, &evt))
	require.Equal(t, rewards.TypeMint, evt.Type)
	require.Equal(t, "950", evt.Attributes["amount_minted"])
}

func TestRequestValidation(t *testing.T) {
	ts := newTestServer(t, true, nil)

	rec := ts.post(t, ts.admin, "/v1/freeze", FreezeRequest{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decode[errorBody](t, rec).Error, "freeze target required")
	rec = ts.post(t, ts.admin, "/v1/unfreeze", FreezeRequest{Target: " "})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.get(t, "/v1/freeze", "")
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[FreezeResponse](t, rec)
	require.False(t, state.IsFrozen)
	require.False(t, state.FreezeMint)
	require.False(t, state.FreezeBurn)

	rec = ts.post(t, ts.admin, "/v1/fees/update", UpdateFeesRequest{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decode[errorBody](t, rec).Error, "at least one field")

	rec = ts.post(t, ts.user, "/v1/mint", AmountRequest{Amount: 0})
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode[errorBody](t, rec)
	require.Equal(t, uint32(6001), body.Code)
	require.Contains(t, body.Error, "rejected by policy")
}

func TestClientIDIgnoresForwardingHeadersByDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/fees", nil)
	req.RemoteAddr = "192.0.2.10:5555"
	req.Header.Set("X-Real-IP", "203.0.113.7")
	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.1")

	require.Equal(t, "192.0.2.10", clientID(req, false))
	require.Equal(t, "203.0.113.7", clientID(req, true))

	req.Header.Del("X-Real-IP")
	require.Equal(t, "198.51.100.1", clientID(req, true))

	req.Header.Set("X-Real-IP", "not-an-ip")
	require.Equal(t, "198.51.100.1", clientID(req, true))
}

func TestRateLimitCannotBeDodgedWithForwardingHeaders(t *testing.T) {
	ts := newTestServer(t, true, func(cfg *Config) {
		cfg.RateLimit = RateLimit{RequestsPerSecond: 1, Burst: 1}
	})
	fixed := time.Now()
	ts.srv.limiter.clockNow = func() time.Time { return fixed }

	for i, code := range []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/v1/freeze", nil)
		req.Header.Set("X-Real-IP", fmt.Sprintf("203.0.113.%d", i+1))
		rec := httptest.NewRecorder()
		ts.handler.ServeHTTP(rec, req)
		require.Equal(t, code, rec.Code)
	}
}
