package request

type LoginRequest struct {
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`
}

type ListRequest struct {
	Offset         int  `query:"offset" validate:"gte=0"`
	Limit          int  `query:"limit" validate:"gte=0,lte=1000"`
	IncludeGallery bool `query:"include_gallery"`
}
