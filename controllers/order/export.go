package orderControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"

	"github.com/AngelShahi/Susankyabazzar-sub000/models"
)

// GET /admin/orders/export
func ExportOrdersToExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orders []models.Order
		if err := db.Preload("Items").Order("created_at DESC").Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}

		file := xlsx.NewFile()
		sheet, err := file.AddSheet("Orders")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel sheet"})
			return
		}

		headers := []string{
			"ID", "OrderRef", "UserID", "PaymentMethod",
			"ItemsPrice", "ShippingPrice", "TaxPrice", "TotalPrice", "TotalSavings",
			"Paid", "Delivered", "Cancelled", "CancellationReason", "CreatedAt",
		}
		headerRow := sheet.AddRow()
		for _, h := range headers {
			headerRow.AddCell().SetValue(h)
		}

		for _, o := range orders {
			row := sheet.AddRow()
			row.AddCell().SetValue(o.ID)
			row.AddCell().SetValue(o.OrderRef)
			row.AddCell().SetValue(o.UserID)
			row.AddCell().SetValue(string(o.PaymentMethod))
			row.AddCell().SetValue(o.ItemsPrice)
			row.AddCell().SetValue(o.ShippingPrice)
			row.AddCell().SetValue(o.TaxPrice)
			row.AddCell().SetValue(o.TotalPrice)
			row.AddCell().SetValue(o.TotalSavings)
			row.AddCell().SetValue(o.IsPaid)
			row.AddCell().SetValue(o.IsDelivered)
			row.AddCell().SetValue(o.IsCancelled)
			row.AddCell().SetValue(o.CancellationReason)
			row.AddCell().SetValue(o.CreatedAt.Format("2006-01-02 15:04:05"))
		}

		c.Header("Content-Disposition", "attachment; filename=orders.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		if err := file.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
			return
		}
	}
}
