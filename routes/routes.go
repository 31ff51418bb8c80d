package routes

import (
	"mediloon/auth"
	"mediloon/medicines"
	"mediloon/middleware"
	"mediloon/ordering"
	"mediloon/orderws"
	"mediloon/predict"
	"mediloon/ratelim"
	"mediloon/webhooks"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func AddStaticRoutes(router *httprouter.Router) {
	router.ServeFiles("/static/prescriptions/*filepath", http.Dir("static/prescriptions"))
}

func AddAuthRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, api *auth.API) {
	router.POST("/api/auth/register", rl.Limit(api.Register))
	router.POST("/api/auth/login", rl.Limit(api.Login))
	router.POST("/api/auth/refresh", rl.Limit(api.RefreshToken))
}

func AddOrderRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, api *ordering.API) {
	router.POST("/api/ordering/chat", rl.Limit(middleware.Authenticate(api.Chat)))
	router.GET("/api/ordering/session/:sessionid", middleware.Authenticate(api.GetSession))
	router.POST("/api/ordering/session/:sessionid/prescription", rl.Limit(middleware.Authenticate(api.UploadPrescription)))
	router.GET("/api/ordering/history", middleware.Authenticate(api.History))
	router.GET("/api/ordering/receipt/:orderid", middleware.Authenticate(api.Receipt))
}

func AddPredictionRoutes(router *httprouter.Router, api *predict.API) {
	router.GET("/api/predictions/:userid", middleware.Authenticate(api.ForCustomer))
}

func AddMedicineRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, api *medicines.API) {
	router.GET("/api/medicines", api.List)
	router.POST("/api/medicines", rl.Limit(middleware.Authenticate(api.Create)))
	router.PUT("/api/medicines/:sku/stock", rl.Limit(middleware.Authenticate(api.SetStock)))
}

func AddWebhookRoutes(router *httprouter.Router, api *webhooks.API) {
	router.POST("/api/webhooks/supplier", api.Supplier)
	router.POST("/api/webhooks/notify", api.NotifyReceipt)
}

func AddStatusSocketRoutes(router *httprouter.Router, hub *orderws.Hub) {
	router.GET("/ws/orders/:sessionid", orderws.StatusSocket(hub))
}
