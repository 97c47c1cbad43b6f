// Package query holds the value types that flow through the gateway:
// the user's Query, the classifier's Intent, the stable chart-kind
// vocabulary, and the Result returned to the UI layer.
//
// Everything here is plain data. Behavior lives in the packages that
// produce these values (classify, fallback, gateway).
package query
