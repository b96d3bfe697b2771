package common

// AuthorizationHeaderName carries the bearer token on inbound HTTP requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token in the Authorization header.
const BearerPrefix = "Bearer "

// AccessTokenHeaderName is the gRPC metadata key carrying the bearer token.
const AccessTokenHeaderName = "access_token"
