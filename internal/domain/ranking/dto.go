package ranking

type CreateGroupRequest struct {
	Name string `json:"name" binding:"required" validate:"required,min=1,max=128"`
	Rank int    `json:"rank" binding:"required" validate:"required,gt=0"`
}

type SetUserGroupsRequest struct {
	GroupIDs []int64 `json:"groupIds" binding:"required" validate:"dive,gt=0"`
}
