package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xiaodongliang/design.automation-.net-custom.activity.sample/internal/client"
)

var _ = Describe("token provider", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("exchanges credentials and returns the header value", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.Method).To(Equal(http.MethodPost))
			Expect(r.Header.Get("Content-Type")).To(Equal("application/x-www-form-urlencoded"))
			Expect(r.ParseForm()).To(Succeed())
			Expect(r.PostForm.Get("client_id")).To(Equal("my-id"))
			Expect(r.PostForm.Get("client_secret")).To(Equal("my-secret"))
			Expect(r.PostForm.Get("grant_type")).To(Equal("client_credentials"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"token_type":"Bearer","access_token":"abc123","expires_in":1799}`))
		}))
		defer server.Close()

		provider := client.NewTokenProvider(server.URL, nil)
		token, err := provider.GetToken(ctx, "my-id", "my-secret")
		Expect(err).To(BeNil())
		Expect(token).To(Equal("Bearer abc123"))
	})

	It("attaches the exact token to the next service request", func() {
		tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"token_type":"Bearer","access_token":"abc123"}`))
		}))
		defer tokenServer.Close()

		var authorization string
		apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authorization = r.Header.Get("Authorization")
			_, _ = w.Write([]byte(`{"value":"Pending"}`))
		}))
		defer apiServer.Close()

		token, err := client.NewTokenProvider(tokenServer.URL, nil).GetToken(ctx, "id", "secret")
		Expect(err).To(BeNil())

		c, err := client.NewClient(apiServer.URL, client.WithAuthorization(token))
		Expect(err).To(BeNil())

		_, err = c.GetWorkItemStatus(ctx, "wi-1")
		Expect(err).To(BeNil())
		Expect(authorization).To(Equal("Bearer abc123"))
	})

	DescribeTable("fails without retrying",
		func(status int, body string, errSubstring string) {
			calls := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(status)
				_, _ = w.Write([]byte(body))
			}))
			defer server.Close()

			_, err := client.NewTokenProvider(server.URL, nil).GetToken(ctx, "id", "secret")
			Expect(err).NotTo(BeNil())
			Expect(err.Error()).To(ContainSubstring(errSubstring))
			Expect(calls).To(Equal(1))
		},
		Entry("malformed json", http.StatusOK, `{"token_type":`, "failed to decode token response"),
		Entry("missing token_type", http.StatusOK, `{"access_token":"abc"}`, "no token_type"),
		Entry("missing access_token", http.StatusOK, `{"token_type":"Bearer"}`, "no access_token"),
		Entry("non-2xx", http.StatusUnauthorized, `{"developerMessage":"bad credentials"}`, "status 401"),
	)

	It("returns an error when the endpoint is unreachable", func() {
		provider := client.NewTokenProvider("http://192.0.2.0:8080", &http.Client{Timeout: time.Second})
		_, err := provider.GetToken(ctx, "id", "secret")
		Expect(err).NotTo(BeNil())
		Expect(err.Error()).To(ContainSubstring("failed to call token endpoint"))
	})

	It("reads the expiration of JWT access tokens", func() {
		exp := time.Now().Add(time.Hour).Truncate(time.Second)
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("key"))
		Expect(err).To(BeNil())

		got, ok := client.Token{TokenType: "Bearer", AccessToken: signed}.Expiration()
		Expect(ok).To(BeTrue())
		Expect(got.Equal(exp)).To(BeTrue())

		_, ok = client.Token{TokenType: "Bearer", AccessToken: "opaque"}.Expiration()
		Expect(ok).To(BeFalse())
	})
})
