package bot

import "github.com/example/studybot/pkg/models"

// PredefinedCourses is the catalogue loaded by /dersler_yukle
var PredefinedCourses = []models.CourseSpec{
	{
		Name:        "Ön Yüz Programlama",
		Description: "HTML, CSS, JavaScript, React ile modern web uygulamaları",
		Topics: []string{
			"HTML5 Temelleri",
			"CSS3 ve Responsive Tasarım",
			"JavaScript Temelleri",
			"DOM Manipülasyonu",
			"Fetch API ve AJAX",
			"React'a Giriş",
			"React Hooks",
			"State Management",
			"Routing",
			"Proje: Portföy Sitesi",
		},
	},
	{
		Name:        "İleri Programlama",
		Description: "Python/C++, OOP, Veri Yapıları ve Algoritmalar",
		Topics: []string{
			"OOP Temelleri",
			"Sınıflar ve Nesneler",
			"Kalıtım (Inheritance)",
			"Polimorfizm",
			"Veri Yapıları: Liste, Stack, Queue",
			"Ağaç Yapıları",
			"Arama Algoritmaları",
			"Sıralama Algoritmaları",
			"Recursion",
			"Proje: Veri Yapısı Kütüphanesi",
		},
	},
	{
		Name:        "Bilgisayar Destekli Çizim",
		Description: "Autodesk Inventor ile 3D modelleme ve teknik resim",
		Topics: []string{
			"Inventor Arayüzü",
			"2D Sketch Araçları",
			"3D Modelleme: Extrude, Revolve",
			"Fillet ve Chamfer",
			"Assembly Tasarımı",
			"Constraint'ler",
			"Teknik Resim",
			"BOM (Malzeme Listesi)",
			"Render ve Sunum",
			"Proje: Mekanik Parça Montajı",
		},
	},
	{
		Name:        "Sayısal Tasarım",
		Description: "Dijital mantık, sayı sistemleri, mantık devreleri",
		Topics: []string{
			"Sayı Sistemleri (Binary, Hex)",
			"Boolean Cebir",
			"Mantık Kapıları",
			"Karnaugh Map",
			"Kombine Devreler",
			"Flip-Floplar",
			"Sayıcılar ve Registerlar",
			"FSM (Finite State Machine)",
			"VHDL/Verilog Giriş",
			"Proje: Dijital Saat Devresi",
		},
	},
	{
		Name:        "Yapay Zeka Uygulamaları",
		Description: "Machine Learning, Deep Learning, Computer Vision, NLP",
		Topics: []string{
			"AI'ya Giriş",
			"Machine Learning Temelleri",
			"Supervised Learning",
			"Neural Networks",
			"Gradient Descent",
			"CNN ve Computer Vision",
			"RNN ve NLP",
			"Transfer Learning",
			"Model Evaluation",
			"Proje: Görüntü Sınıflandırma",
		},
	},
	{
		Name:        "Sensörler ve Transdüserler",
		Description: "Arduino, IoT sensörleri, veri toplama",
		Topics: []string{
			"Sensör Temelleri",
			"Arduino'ya Giriş",
			"Sıcaklık Sensörleri",
			"Basınç Sensörleri",
			"Ultrasonik Sensörler",
			"Kızılötesi Sensörler",
			"Sensör Entegrasyonu",
			"IoT Projeleri",
			"Veri Görselleştirme",
			"Proje: IoT Hava İstasyonu",
		},
	},
}
