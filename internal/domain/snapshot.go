package domain

// Snapshot is a read-only view of shop data handed to the assistant on every turn.
type Snapshot struct {
	Customers  []Customer
	WorkOrders []WorkOrder
	Products   []Product
}

// TotalCustomers returns 0 for a nil snapshot, like the other aggregates.
func (s *Snapshot) TotalCustomers() int {
	if s == nil {
		return 0
	}
	return len(s.Customers)
}

func (s *Snapshot) TotalWorkOrders() int {
	if s == nil {
		return 0
	}
	return len(s.WorkOrders)
}

func (s *Snapshot) TotalProducts() int {
	if s == nil {
		return 0
	}
	return len(s.Products)
}

// DeliveredWorkOrders counts orders handed back to the customer.
func (s *Snapshot) DeliveredWorkOrders() int {
	if s == nil {
		return 0
	}

	count := 0
	for _, wo := range s.WorkOrders {
		if wo.Status == WorkOrderDelivered {
			count++
		}
	}
	return count
}

// Revenue sums the quoted value of delivered orders.
func (s *Snapshot) Revenue() float64 {
	if s == nil {
		return 0
	}

	var total float64
	for _, wo := range s.WorkOrders {
		if wo.Status == WorkOrderDelivered && wo.QuotedValue != nil {
			total += *wo.QuotedValue
		}
	}
	return total
}

func (s *Snapshot) LowStockProducts() []Product {
	if s == nil {
		return nil
	}

	var low []Product
	for _, p := range s.Products {
		if p.LowStock() {
			low = append(low, p)
		}
	}
	return low
}

// WorkOrdersFor returns the orders that belong to customerID.
func (s *Snapshot) WorkOrdersFor(customerID int64) []WorkOrder {
	if s == nil {
		return nil
	}

	var orders []WorkOrder
	for _, wo := range s.WorkOrders {
		if wo.CustomerID == customerID {
			orders = append(orders, wo)
		}
	}
	return orders
}
