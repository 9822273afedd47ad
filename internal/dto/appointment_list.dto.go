package dto

type AppointmentListDTO struct {
	ID            string   `json:"id"`
	BookingID     string   `json:"booking_id"`
	CustomerID    string   `json:"customer_id"`
	Date          string   `json:"date"`
	StartTime     int      `json:"start_time"`
	EndTime       int      `json:"end_time"`
	Start         string   `json:"start"`
	End           string   `json:"end"`
	Services      []string `json:"services"`
	Status        string   `json:"status"`
	PaymentStatus string   `json:"payment_status"`
}
