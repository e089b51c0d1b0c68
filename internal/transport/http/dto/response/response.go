package response

// ErrorResponse — тело любой ошибки: {"detail": "..."}
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Response — ответ на мутацию в админке
type Response struct {
	Detail string      `json:"detail"`
	ID     int64       `json:"id,omitempty"`
	Item   interface{} `json:"item,omitempty"`
}

type BulkDeleteResponse struct {
	Detail    string `json:"detail"`
	Deleted   int    `json:"deleted"`
	Requested int    `json:"requested"`
}

type AutoPopulateResponse struct {
	Detail  string `json:"detail"`
	Created int    `json:"created"`
}

type ImportResponse struct {
	Detail string `json:"detail"`
	ImportResultView
}

// ImportResultView дублирует models.ImportResult, чтобы swag видел поля.
type ImportResultView struct {
	Created int              `json:"created"`
	Updated int              `json:"updated"`
	Skipped int              `json:"skipped"`
	Errors  []ImportRowError `json:"errors,omitempty"`
}

type ImportRowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

type SeafileDirResponse struct {
	Path  string      `json:"path"`
	Items interface{} `json:"items"`
}

type SeafileFileResponse struct {
	Path string `json:"path"`
	Link string `json:"link"`
}

type DesignImageResponse struct {
	FrameColor  string `json:"frame_color"`
	InsertColor string `json:"insert_color"`
	URL         string `json:"url"`
}

func Error(detail string) ErrorResponse {
	return ErrorResponse{Detail: detail}
}
