package services

var seedGivenNames = []string{
	"Rowan", "Elena", "Marcus", "Vera", "Theron", "Lyra",
	"Amara", "Kofi", "Zara", "Jabari", "Nia", "Kwame",
	"Kenji", "Mei", "Hiroshi", "Yuki", "Jin", "Sora",
	"Priya", "Arjun", "Kavya", "Ravi", "Anaya", "Dev",
	"Layla", "Nasir", "Farah", "Khalil", "Zahra", "Omar",
	"Mateo", "Lucia", "Diego", "Carmen", "Rafael", "Sofia",
	"Kaya", "Tala", "Wren", "Sage", "River", "Ada",
}

var seedFamilyNames = []string{
	"Blackwood", "Ashford", "Thornwick", "Fairchild", "Greymoor",
	"Okonkwo", "Mbeki", "Diallo", "Osei", "Mensah",
	"Tanaka", "Chen", "Sharma", "Nguyen", "Kim",
	"Nakamura", "Patel", "Li", "Yamamoto", "Singh",
	"Hakim", "Farouk", "Khoury", "Karimi", "Mansouri",
	"Reyes", "Mendoza", "Castillo", "Vargas", "Delgado",
	"Moreno", "Navarro", "Santos", "Vega", "O'Connor",
}

var seedTitleLevels = []string{
	"Senior", "Junior", "Lead", "Principal", "Chief", "Associate", "Staff", "Regional",
}

var seedTitleAreas = []string{
	"Data", "Marketing", "Finance", "Security", "Infrastructure",
	"Product", "Operations", "Research", "Accounts", "Brand",
}

var seedTitleRoles = []string{
	"Engineer", "Analyst", "Manager", "Consultant", "Architect",
	"Specialist", "Coordinator", "Strategist", "Administrator", "Officer",
}
