package dto

// ErrorResponse is the body of every non-2xx scheduler API reply.
// Error carries the validation or lookup message, e.g. an unknown job type or a bad cron expression.
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request: unsupported job type \"STOCK_SYNC\""`
}
