package roomhandler

// RoomInfoResponse mirrors the snapshot a joining connection receives, plus
// the live member count.
type RoomInfoResponse struct {
	Content  string   `json:"content"`
	Language string   `json:"language" example:"javascript"`
	Output   []string `json:"output"`
	Members  int      `json:"members"  example:"2"`
} // @name RoomInfoResponse

type ExecuteBody struct {
	Language string `json:"language" binding:"required,oneof=javascript python java" example:"python"`
	Content  string `json:"content"  binding:"required"                              example:"print(1)"`
} // @name ExecuteRequest

type ExecuteResponse struct {
	Output []string `json:"output"`
} // @name ExecuteResponse

type ErrorResponse struct {
	Error string `json:"error"`
} // @name ErrorResponse
