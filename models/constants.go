package models

// Category display defaults
const (
	DefaultCategoryIcon  = "📁"
	DefaultCategoryColor = "#6366f1"
)

// Placeholder display values for spend whose category no longer resolves
const (
	UnknownCategoryName  = "Unknown"
	UnknownCategoryIcon  = "📁"
	UnknownCategoryColor = "#6b7280"
)

// DefaultCategories are created for every new account, in this order
var DefaultCategories = []CategorySeed{
	{Name: "Food & Dining", Icon: "🍔", Color: "#ef4444"},
	{Name: "Transportation", Icon: "🚗", Color: "#f97316"},
	{Name: "Shopping", Icon: "🛒", Color: "#eab308"},
	{Name: "Entertainment", Icon: "🎬", Color: "#22c55e"},
	{Name: "Bills & Utilities", Icon: "💡", Color: "#3b82f6"},
	{Name: "Healthcare", Icon: "🏥", Color: "#8b5cf6"},
	{Name: "Other", Icon: "📦", Color: "#6b7280"},
}
