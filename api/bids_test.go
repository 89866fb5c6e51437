package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"silentbid/bidding"
)

func TestRenderBidError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testCases := []struct {
		name           string
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "validation error returns field messages",
			err:            &bidding.ValidationError{Fields: map[string]string{"email": "Please enter a valid email address."}},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"email":"Please enter a valid email address."`,
		},
		{
			name:           "unknown item",
			err:            bidding.ErrItemNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "paused item",
			err:            bidding.ErrItemNotBiddable,
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "bid too low carries the current bid in dollars",
			err:            &bidding.BidTooLowError{CurrentBid: 125050},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"currentBid":1250.5`,
		},
		{
			name:           "invalid increment carries the minimum next bid in dollars",
			err:            &bidding.InvalidIncrementError{CurrentBid: 10000, MinimumNext: 12500},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"minimumNextBid":125`,
		},
		{
			name:           "fraud rejection carries the reason",
			err:            &bidding.FraudRejectedError{Reason: "email is on a known blocklist"},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"reason":"email is on a known blocklist"`,
		},
		{
			name:           "losing a concurrent race",
			err:            bidding.ErrConflict,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "transient failure",
			err:            &bidding.TransientError{Op: "PlaceBid", Err: errors.New("connection refused")},
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name:           "unexpected error",
			err:            errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(recorder)

			impl := &ServerImpl{}
			impl.renderBidError(c, tc.err)

			assert.Equal(t, tc.expectedStatus, recorder.Code)
			if tc.expectedBody != "" {
				assert.Contains(t, recorder.Body.String(), tc.expectedBody)
			}
		})
	}
}

func TestMoneyConversion(t *testing.T) {
	testCases := []struct {
		dollars float64
		cents   int64
	}{
		{dollars: 0.01, cents: 1},
		{dollars: 1, cents: 100},
		{dollars: 1250.50, cents: 125050},
		// 浮點數表示上最接近 19.99 的值略小於 19.99，四捨五入後仍須得到 1999
		{dollars: 19.99, cents: 1999},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.cents, dollarsToCents(tc.dollars))
		assert.Equal(t, tc.dollars, centsToDollars(tc.cents))
	}
}
